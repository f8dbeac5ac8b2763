package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/importer"
)

// importCmd loads athletes and activities and rescores them.
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import athletes and activities from a JSON export.",
	Long: `Load athletes and activities from a JSON document of the form

  {"athletes": [{"id": 1, "firstname": "Ada", "lastname": "Lovelace"}],
   "activities": [{"id": 10, "athlete_id": 1, "start_date": "2025-03-03T07:30:00Z",
                   "moving_time": 1500, ...}]}

Times are in seconds. Records are upserted by ID, so re-importing a newer
export is safe. Every imported athlete is recomputed afterwards unless
--no-compute is given.

Examples:
  contest import export.json
  contest import - < export.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		in := os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				contract.LogFatal("Cannot open import file", err)
			}
			defer func() { _ = f.Close() }()
			in = f
		}

		export, err := importer.Decode(in)
		if err != nil {
			contract.LogFatal("Cannot read import file", err)
		}
		st := activeStore()
		res, err := importer.New(st, cfg.Location, slog.Default()).Import(ctx, export)
		if err != nil {
			contract.LogFatal("Import failed", err)
		}
		fmt.Printf("Imported %d athletes and %d activities.\n", res.Athletes, res.Activities)

		if viper.GetBool("no-compute") {
			return
		}
		recomputer := core.NewRecomputer(st, cfg, nil)
		ctx = core.WithTrigger(ctx, "import")
		for _, id := range res.AthleteIDs {
			synced, err := recomputer.ComputeAthleteByID(ctx, id)
			if err != nil {
				contract.LogWarn(fmt.Sprintf("Cannot recompute athlete %d", id), err)
				continue
			}
			fmt.Printf("Athlete %d: %d inserted, %d updated, %d deleted\n", id, synced.Inserted, synced.Updated, synced.Deleted)
		}
	},
}
