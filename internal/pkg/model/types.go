package model

// Command is the "type" discriminator on every frame sent to the backend.
type Command string

func (c Command) String() string {
	return string(c)
}

const (
	GetConfig       Command = "glow/get_config"
	CreateViz       Command = "glow/create_viz"
	UpdateViz       Command = "glow/update_viz"
	DeleteViz       Command = "glow/delete_viz"
	SubscribeStates Command = "glow/subscribe_states"
)

// RendererType selects how a visualization maps values to its segment.
type RendererType string

func (r RendererType) String() string {
	return string(r)
}

const (
	RendererGauge  RendererType = "gauge"
	RendererFlow   RendererType = "flow"
	RendererEffect RendererType = "effect"
	RendererAlert  RendererType = "alert"
)

// FlashStyle is only meaningful for alert visualizations.
type FlashStyle string

const (
	FlashPulse  FlashStyle = "pulse"
	FlashStrobe FlashStyle = "strobe"
	FlashSolid  FlashStyle = "solid"
)

// EntityRole keys the entity_map: each role points at an auxiliary backend
// entity the operator can use to drive the visualization. An absent role
// means the corresponding control is simply not offered.
type EntityRole string

const (
	RoleEnabled      EntityRole = "enabled"
	RoleValue        EntityRole = "value"
	RoleNormalized   EntityRole = "normalized"
	RoleFloor        EntityRole = "floor"
	RoleCeiling      EntityRole = "ceiling"
	RoleEffect       EntityRole = "effect"
	RoleSpeedMin     EntityRole = "speed_min"
	RoleSpeedMax     EntityRole = "speed_max"
	RoleMirror       EntityRole = "mirror"
	RoleIncludeBlack EntityRole = "include_black"
)

// Wire parameter names accepted by update_viz.
const (
	ParamName         = "name"
	ParamEnabled      = "enabled"
	ParamFloor        = "floor"
	ParamCeiling      = "ceiling"
	ParamColorLow     = "color_low"
	ParamColorHigh    = "color_high"
	ParamFlashColor   = "flash_color"
	ParamFlashSpeed   = "flash_speed"
	ParamFlashStyle   = "flash_style"
	ParamEffectID     = "wled_fx"
	ParamSpeedMin     = "speed_min"
	ParamSpeedMax     = "speed_max"
	ParamMirror       = "mirror"
	ParamIncludeBlack = "include_black"
)

// ColorParams lists the params whose values are RGB triples on the wire.
// The backend rejects anything but plain int arrays for these.
var ColorParams = []string{ParamColorLow, ParamColorHigh, ParamFlashColor}
