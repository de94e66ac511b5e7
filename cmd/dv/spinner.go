package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
)

// startSpinner shows a spinner with the given message while a slow step
// (key derivation, directory encryption) runs. Returns the spinner and a
// cleanup to defer; set spinner.FinalMSG before cleanup to print an outcome
// line. In verbose/debug mode the spinner stays off so log lines are not
// mangled.
func startSpinner(message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Continue uncolored if the terminal refuses.
	_ = s.Color("cyan")

	active := !verbose && !debug
	if active {
		s.Start()
	} else {
		log.Infof("%s", message)
	}

	cleanup := func() {
		finalMsg := s.FinalMSG
		s.FinalMSG = ""
		if active {
			s.Stop()
		}
		if finalMsg != "" {
			if !strings.HasSuffix(finalMsg, "\n") {
				finalMsg += "\n"
			}
			fmt.Print(finalMsg)
		}
	}
	return s, cleanup
}
