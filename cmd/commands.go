package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ticket-manager/internal/services"
	"ticket-manager/models"
	"ticket-manager/utils"
)

type seedOptions struct {
	EventID   string
	EventName string
	Tickets   int
	TeamSize  int
}

type seedResult struct {
	TicketIDs []string
	UserIDs   []string
}

// seedEvent creates an event with n tickets, each owned by TeamSize fresh users.
func seedEvent(ctx context.Context, d *dependencies, opts seedOptions, now time.Time) (*seedResult, error) {
	if opts.EventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	if opts.TeamSize < 1 {
		opts.TeamSize = 1
	}

	if err := d.events.Create(ctx, &models.Event{ID: opts.EventID, Name: opts.EventName}); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	at := models.NewTimestamp(now)
	result := &seedResult{}
	for i := 0; i < opts.Tickets; i++ {
		code, err := utils.GenerateCode(4)
		if err != nil {
			return nil, err
		}

		ticket := &models.Ticket{
			ID:        code,
			EventID:   opts.EventID,
			EventName: opts.EventName,
			TeamName:  fmt.Sprintf("Team %d", i+1),
			Active:    true,
		}
		for j := 0; j < opts.TeamSize; j++ {
			userID := fmt.Sprintf("%s-u%d%d", code, i+1, j+1)
			user := &models.User{
				ID:      userID,
				Name:    fmt.Sprintf("Member %d.%d", i+1, j+1),
				Email:   userID + "@example.com",
				Tickets: []string{code},
			}
			if err := d.users.Create(ctx, user); err != nil {
				return nil, fmt.Errorf("create user %s: %w", userID, err)
			}
			ticket.AddMember(userID, at)
			result.UserIDs = append(result.UserIDs, userID)
		}

		if err := d.tickets.Create(ctx, ticket); err != nil {
			return nil, fmt.Errorf("create ticket %s: %w", code, err)
		}
		result.TicketIDs = append(result.TicketIDs, code)
	}

	return result, nil
}

func newSeedCommand(d *dependencies) *cobra.Command {
	opts := seedOptions{}

	command := &cobra.Command{
		Use:   "seed",
		Short: "Creates a sample event with tickets and members",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := seedEvent(cmd.Context(), d, opts, time.Now())
			if err != nil {
				return err
			}
			log.Info().
				Str("event_id", opts.EventID).
				Int("tickets", len(result.TicketIDs)).
				Int("users", len(result.UserIDs)).
				Msg("seed data created")
			for _, id := range result.TicketIDs {
				cmd.Println(id)
			}
			return nil
		},
	}

	command.Flags().StringVar(&opts.EventID, "event", "demo", "event id")
	command.Flags().StringVar(&opts.EventName, "name", "Demo Event", "event display name")
	command.Flags().IntVar(&opts.Tickets, "tickets", 5, "number of tickets")
	command.Flags().IntVar(&opts.TeamSize, "team-size", 2, "members per ticket")

	return command
}

func newReconcileCommand(d *dependencies) *cobra.Command {
	var eventID string

	command := &cobra.Command{
		Use:   "reconcile",
		Short: "Adds missing ticket ids to the users listed on an event's tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			repaired, err := d.service.ReconcileMemberships(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			cmd.Printf("repaired %d users\n", repaired)
			return nil
		},
	}

	command.Flags().StringVar(&eventID, "event", "", "event id")
	_ = command.MarkFlagRequired("event")

	return command
}

func newSessionCommand(d *dependencies) *cobra.Command {
	var (
		caller services.Caller
		ttl    time.Duration
	)

	command := &cobra.Command{
		Use:   "session",
		Short: "Prints a signed coordinator session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := d.sessions.Issue(caller, ttl)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}

	command.Flags().StringVar(&caller.EventID, "event", "", "event the coordinator manages")
	command.Flags().BoolVar(&caller.MainCoordinator, "main", false, "grant access to every event")
	command.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")

	return command
}
