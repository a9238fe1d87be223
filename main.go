package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/infraglow/glowctl/cmd"
)

func main() {
	app := &cli.App{
		Name:   "glowctl",
		Usage:  "controller keeping LED visualizations in sync with the glow backend",
		Action: cmd.GlowCommand,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "from-env",
				Usage: "ignore flags and configure purely from the environment",
				Value: false,
			},
			&cli.StringFlag{
				Name:    "glow-host",
				EnvVars: []string{"GLOW_HOST"},
			},
			&cli.BoolFlag{
				Name:    "glow-ssl",
				EnvVars: []string{"GLOW_SSL"},
				Value:   false,
			},
			&cli.StringFlag{
				Name:    "glow-entry-id",
				EnvVars: []string{"GLOW_ENTRY_ID"},
			},
			&cli.DurationFlag{
				Name:    "call-timeout",
				EnvVars: []string{"GLOW_CALL_TIMEOUT"},
				Value:   10 * time.Second,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "mqtt-connect-timeout",
				EnvVars: []string{"MQTT_CONNECT_TIMEOUT"},
				Value:   5 * time.Second,
			},
			&cli.StringFlag{
				Name:    "status-addr",
				EnvVars: []string{"STATUS_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "resync-schedule",
				EnvVars: []string{"RESYNC_SCHEDULE"},
				Value:   "@every 1h",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
