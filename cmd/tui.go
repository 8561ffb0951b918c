package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/knuckles/internal/models"
	"github.com/desertthunder/knuckles/internal/services"
	"github.com/desertthunder/knuckles/internal/shared"
	"github.com/desertthunder/knuckles/internal/tasks"
	"github.com/desertthunder/knuckles/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive album browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	listType, err := models.ParseAlbumListType(cmd.String("type"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.Engine(nil)
	if err != nil {
		return err
	}
	library, _ := r.Library()

	model := ui.NewModel(ctx, library, engine, ui.Options{
		Albums: services.AlbumListOptions{Type: listType, Size: cmd.Int("size")},
		Download: tasks.DownloadOpts{
			OutputDir: cmd.String("output"),
			Stream:    r.streamOptions(cmd),
		},
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
