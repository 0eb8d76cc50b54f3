package cli

import (
	"io"
	"time"

	"github.com/defeedco/prefetch/pkg/snapshot"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

func newListCommand(opts *options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered sources and the age of their snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, stderr)
			if err != nil {
				return err
			}

			var statuses []sourceStatus
			for _, d := range a.registry.Descriptors() {
				status := sourceStatus{descriptor: d}

				envelope, err := a.store.Read(d.Snapshot)
				switch {
				case err == nil:
					status.fetchedAt = envelope.Metadata.FetchedAt
				case failure.Is(err, snapshot.NotFound):
				default:
					a.logger.Warn().Err(err).Str("source", d.Name).Msg("Failed to read snapshot")
				}

				statuses = append(statuses, status)
			}

			return writeSources(stdout, statuses, time.Now())
		},
	}
}
