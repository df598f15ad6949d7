package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
	"github.com/custodia-labs/schedmaker/internal/core/services"
	"github.com/custodia-labs/schedmaker/internal/logger"
)

// watchDebounce coalesces the burst of events produced by one atomic write.
const watchDebounce = 100 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the schedule and refresh it when it changes",
	Long: `Shows the schedule and prints it again whenever the saved configuration
changes, for example when another schedmaker run edits it. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := currentSession(ctx)
	if err != nil {
		return err
	}
	if fallbackStore == nil {
		return fmt.Errorf("%w: configuration store not open", domain.ErrStoreUnavailable)
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Print(renderState(s.State.Get(), st))
	cmd.Printf("\n%s\n", st.Muted.Render("Watching "+fallbackStore.PathFor(s.Key())))

	w := newDocumentWatcher(fallbackStore.PathFor(s.Key()))
	return w.Run(ctx, func() {
		state := services.NewStateStore(domain.DefaultConfig())
		outcome, err := services.NewRehydrationController(s.Persistence, state, s.Key()).Rehydrate(ctx)
		if err != nil {
			return
		}
		cmd.Println()
		if outcome.Err != nil {
			cmd.Println(st.Error.Render(fmt.Sprintf("Saved configuration unreadable: %v", outcome.Err)))
			return
		}
		cmd.Printf("%s\n", st.Muted.Render("Updated "+time.Now().Format(time.TimeOnly)))
		cmd.Print(renderState(state.Get(), st))
	})
}

// documentWatcher reports changes to a single file.
type documentWatcher struct {
	path     string
	debounce time.Duration
}

func newDocumentWatcher(path string) *documentWatcher {
	return &documentWatcher{
		path:     filepath.Clean(path),
		debounce: watchDebounce,
	}
}

// Run watches the file's directory and calls onChange after each change
// settles. It returns nil when ctx is done.
func (w *documentWatcher) Run(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// The directory is watched rather than the file since atomic writes
	// replace the file.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.handleFsEvent(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		case <-timer.C:
			onChange()
		}
	}
}

// handleFsEvent reports whether event changed the watched file.
func (w *documentWatcher) handleFsEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
