package main

import (
	"github.com/rs/zerolog/log"

	"ticket-manager/cmd"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal().Err(err).Msg("ticket manager stopped")
	}
}
