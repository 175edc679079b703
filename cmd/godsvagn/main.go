package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/godsvagn/godsvagn/internal/cli"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
