package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/takakv/e2easy/log"
	"github.com/takakv/e2easy/metrics"
)

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "If set, verbosity is at the debug level",
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json-logs",
	Usage: "Log in JSON instead of the console format",
}

var metricsFlag = &cli.StringFlag{
	Name:  "metrics-file",
	Usage: "Write prometheus metrics to this file on exit",
}

var infoFlag = &cli.StringFlag{
	Name:     "info",
	Usage:    "InfoContest file holding the public election parameters",
	Required: true,
}

var dbFlag = &cli.StringFlag{
	Name:     "db",
	Usage:    "Artifact database",
	Required: true,
}

func CLI() *cli.App {
	return &cli.App{
		Name:  "e2easy",
		Usage: "verifiable commit and shuffle ballot box",
		Flags: []cli.Flag{verboseFlag, jsonFlag, metricsFlag},
		Before: func(c *cli.Context) error {
			metrics.Bind()
			return nil
		},
		After: func(c *cli.Context) error {
			if path := c.String(metricsFlag.Name); path != "" {
				return metrics.WriteTextfile(path)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "setup",
				Usage: "derive the public parameters of an election",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "TOML election definition", Required: true},
					&cli.StringFlag{Name: "out", Usage: "InfoContest output file", Required: true},
				},
				Action: setupCmd,
			},
			{
				Name:  "simulate",
				Usage: "run scripted voters through the ballot box and publish the tally",
				Flags: []cli.Flag{
					infoFlag,
					dbFlag,
					&cli.IntFlag{Name: "ballots", Usage: "Number of ballots to cast", Value: 10},
					&cli.Float64Flag{Name: "challenge-rate", Usage: "Probability that a voter audits a ballot", Value: 0.1},
					&cli.StringFlag{Name: "key-seed", Usage: "Hex seed of the notary key; a fresh key is used if empty"},
					&cli.StringFlag{Name: "audit-dir", Usage: "Directory where voters keep their challenges and receipts"},
				},
				Action: simulateCmd,
			},
			{
				Name:  "verify",
				Usage: "verify a published election",
				Flags: []cli.Flag{
					infoFlag,
					dbFlag,
					&cli.StringFlag{Name: "verifying-key", Usage: "Pin the notary key, as scheme:hex"},
				},
				Action: verifyCmd,
			},
			{
				Name:  "verify-ballot",
				Usage: "check a challenged ballot or the receipt of a cast ballot",
				Flags: []cli.Flag{
					infoFlag,
					&cli.StringFlag{Name: "tracking-code", Usage: "Tracking code of the ballot", Required: true},
					&cli.StringFlag{Name: "challenge", Usage: "Challenge file of an audited ballot"},
					&cli.StringFlag{Name: "votes", Usage: "Votes of the audited ballot, as contest:choice,..."},
					&cli.StringFlag{Name: "timestamp", Usage: "Timestamp shown with the tracking code"},
					&cli.StringFlag{Name: "signature", Usage: "Hex receipt signature of a cast ballot"},
					&cli.StringFlag{Name: "db", Usage: "Artifact database holding the audit log"},
				},
				Action: verifyBallotCmd,
			},
		},
	}
}

func logger(c *cli.Context) log.Logger {
	level := log.InfoLevel
	if c.Bool(verboseFlag.Name) {
		level = log.DebugLevel
	}
	return log.New(zapcore.Lock(os.Stderr), level, c.Bool(jsonFlag.Name))
}

func main() {
	if err := CLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
