// Command simulate runs a scripted tasting game against the in-memory
// backend and prints the resulting standings. Useful for demoing the
// scoring rules without a browser or a database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	docstore "github.com/denis-tintumapp/pinot/internal/adapters/docstore"
	session "github.com/denis-tintumapp/pinot/internal/adapters/session"
	app "github.com/denis-tintumapp/pinot/internal/app"
	model "github.com/denis-tintumapp/pinot/internal/domain/model"
	scoring "github.com/denis-tintumapp/pinot/internal/domain/scoring"
	"github.com/denis-tintumapp/pinot/pkg/logger"
)

const eventID = "evt-demo"

var gameStart = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	if err := logger.Init(); err != nil {
		return err
	}
	_ = logger.SetLevelString("warn")

	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(gameStart)
	store := docstore.NewMemoryStore()
	defer store.Close()

	if err := seed(ctx, store); err != nil {
		return err
	}

	svc := app.New(store, app.WithClock(clock))
	sessions := session.NewProvider(session.NewMemoryKV(), session.WithClock(clock))

	hostSession, err := sessions.GetOrCreate(ctx, eventID)
	if err != nil {
		return err
	}

	// The host's document is the answer key: C1 is the Rioja, C2 the Malbec.
	if err := svc.ClaimName(ctx, eventID, hostSession, model.HostName); err != nil {
		return err
	}
	if err := svc.AssignCard(ctx, eventID, hostSession, "L1", "C1"); err != nil {
		return err
	}
	if err := svc.AssignCard(ctx, eventID, hostSession, "L2", "C2"); err != nil {
		return err
	}
	if err := svc.Finalize(ctx, eventID, hostSession); err != nil {
		return err
	}

	// Each simulated device carries its own local KV, so every participant
	// gets a distinct session for the same event.
	ana, err := session.NewProvider(session.NewMemoryKV(), session.WithClock(clock)).GetOrCreate(ctx, eventID)
	if err != nil {
		return err
	}
	bea, err := session.NewProvider(session.NewMemoryKV(), session.WithClock(clock)).GetOrCreate(ctx, eventID)
	if err != nil {
		return err
	}

	// Ana answers both correctly within the fast bonus window.
	clock.Advance(10 * time.Minute)
	if err := play(ctx, svc, ana, "Ana", map[string]string{"L1": "C1", "L2": "C2"}); err != nil {
		return err
	}

	// Bea answers late and gets one label wrong.
	clock.Advance(20 * time.Minute)
	if err := play(ctx, svc, bea, "Bea", map[string]string{"L1": "C2", "L2": "C2"}); err != nil {
		return err
	}

	standings, err := svc.Standings(ctx, eventID)
	if err != nil {
		return err
	}
	printStandings(standings)
	return nil
}

// play walks one participant through the full flow: claim, assign, rate,
// finalize.
func play(ctx context.Context, svc *app.Service, sessionID, name string, answers map[string]string) error {
	if err := svc.ClaimName(ctx, eventID, sessionID, name); err != nil {
		return err
	}
	for labelID, cardID := range answers {
		if err := svc.AssignCard(ctx, eventID, sessionID, labelID, cardID); err != nil {
			return err
		}
		if err := svc.Rate(ctx, eventID, sessionID, labelID, 4); err != nil {
			return err
		}
	}
	return svc.Finalize(ctx, eventID, sessionID)
}

func seed(ctx context.Context, store docstore.Store) error {
	event := model.EventRecord{
		ID:       eventID,
		Name:     "Demo Tasting",
		PIN:      "73914",
		HostID:   "host-1",
		IsActive: true,
		Cards: []model.CardRef{
			{ID: "C1", Name: "Rioja"},
			{ID: "C2", Name: "Malbec"},
		},
		ParticipantNames: []string{"Ana", "Bea"},
		Timer:            model.TimerState{Active: true, StartedAt: &gameStart},
	}
	if err := store.Upsert(ctx, docstore.Events, event.ID, event); err != nil {
		return err
	}
	labels := []model.LabelRecord{
		{ID: "L1", EventID: eventID, Name: "Etiqueta A"},
		{ID: "L2", EventID: eventID, Name: "Etiqueta B"},
	}
	for _, l := range labels {
		if err := store.Upsert(ctx, docstore.Labels, l.ID, l); err != nil {
			return err
		}
	}
	return nil
}

func printStandings(standings []scoring.Standing) {
	podium, rest := scoring.Podium(standings)
	fmt.Println("=== Podium ===")
	for _, s := range podium {
		printStanding(s)
	}
	if len(rest) > 0 {
		fmt.Println("=== Rest ===")
		for _, s := range rest {
			printStanding(s)
		}
	}
}

func printStanding(s scoring.Standing) {
	tie := ""
	if s.Tied {
		tie = " (tied)"
	}
	fmt.Printf("%d. %s  %d pts%s\n", s.Rank, s.ParticipantName, s.TotalPoints, tie)
}
