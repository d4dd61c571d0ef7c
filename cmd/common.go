package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for --image
	_ "image/png"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/waterme/internal/datum"
	"github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/parser"
	"github.com/manav03panchal/waterme/internal/validate"
)

// commandContext returns the command's context, or Background in tests that
// call RunE directly.
func commandContext(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

func controller(cmd *cobra.Command) (datum.BasicController, error) {
	return ctx.Controller(commandContext(cmd))
}

// parseInterval parses an --every value into days.
func parseInterval(raw string) (int, error) {
	res := parser.ParseInterval(raw)
	if res.Error != nil {
		return 0, parser.AsUserError(res.Error)
	}
	return res.Days, nil
}

// pinClock parses a natural language date and pins the store clock to it.
// An empty value keeps the real clock.
func pinClock(raw string, dir parser.Direction) (time.Time, error) {
	now := ctx.Now()
	if raw == "" {
		return now, nil
	}
	res := parser.ParseTimestamp(raw, now, dir)
	if res.Error != nil {
		return time.Time{}, parser.AsUserError(res.Error)
	}
	if err := ctx.SetNow(res.Time); err != nil {
		return time.Time{}, err
	}
	return res.Time, nil
}

// iconFromFlags builds an icon from --emoji or --image. Both empty returns
// nil.
func iconFromFlags(emoji, imagePath string) (*datum.Icon, error) {
	switch {
	case emoji != "" && imagePath != "":
		return nil, errors.NewUserError("Choose either --emoji or --image", "")
	case emoji != "":
		if err := validate.Emoji(emoji); err != nil {
			return nil, err
		}
		return datum.EmojiIcon(emoji), nil
	case imagePath != "":
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, errors.NewUserErrorWithField("image", imagePath, "Cannot open image", "Check the path")
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, errors.NewUserErrorWithField("image", imagePath, "Unsupported image", "Use a PNG or JPEG file")
		}
		return datum.PictureIcon(img), nil
	}
	return nil, nil
}

// reminderUpdateFromFlags collects the reminder flags that were set on cmd.
func reminderUpdateFromFlags(cmd *cobra.Command, kind, detail, every, note string) (datum.ReminderUpdate, error) {
	var u datum.ReminderUpdate
	flags := cmd.Flags()

	if flags.Changed("kind") || flags.Changed("detail") {
		if kind == "" {
			return u, errors.NewUserError("--detail needs --kind", "Use --kind move or --kind other with --detail")
		}
		k, err := validate.ReminderKind(kind, detail)
		if err != nil {
			return u, err
		}
		u.Kind = &k
	}
	if flags.Changed("every") {
		days, err := parseInterval(every)
		if err != nil {
			return u, err
		}
		u.Interval = &days
	}
	if flags.Changed("note") {
		n := validate.SanitizeNote(note)
		if err := validate.Note(n); err != nil {
			return u, err
		}
		u.Note = &n
	}
	return u, nil
}

func vesselLabel(v datum.ReminderVessel) string {
	if name := datum.ShortLabel(v.DisplayName()); name != "" {
		return name
	}
	return fmt.Sprintf("plant %s", v.ID())
}
