package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pickers "github.com/goliatone/go-admingen/components/picker"
	"github.com/goliatone/go-admingen/internal/tui"
	"github.com/goliatone/go-admingen/pkg/i18n"
	"github.com/goliatone/go-admingen/pkg/picker"
	"github.com/goliatone/go-admingen/pkg/picker/httpfetch"
	"github.com/goliatone/go-admingen/pkg/repository"
)

var (
	pickURL      string
	pickModel    string
	pickField    string
	pickRecord   string
	pickMultiple bool
	pickParam    string
	pickSelected []string
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose association records in the terminal",
	Long: `pick runs the association picker in the terminal and prints the hidden
inputs a form would submit.

With --url it queries a running admin's picker endpoint, for example the
data-url of a picker input. Otherwise --model and --field are resolved
against the configured database.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		fetcher, title, done, err := pickFetcher(ctx)
		if err != nil {
			return err
		}
		defer done()

		mode := picker.Single
		if pickMultiple {
			mode = picker.Multiple
		}
		selected := make([]picker.Item, 0, len(pickSelected))
		for _, id := range pickSelected {
			if id = strings.TrimSpace(id); id != "" {
				selected = append(selected, picker.Item{ID: id})
			}
		}

		translations, err := loadTranslations(cfg.Admin.Translations)
		if err != nil {
			return err
		}
		placeholder, countLabel := pickLabels(i18n.NewLocalizer(translations, cfg.Admin.Locale))

		res, err := tui.Run(ctx, picker.Config{
			Mode:        mode,
			Fetcher:     fetcher,
			Param:       pickParam,
			Debounce:    cfg.Picker.Debounce,
			Selected:    selected,
			Placeholder: placeholder,
			CountLabel:  countLabel,
			Logger:      logger.Named("picker"),
		}, tui.Options{Title: title, Input: cmd.InOrStdin(), Output: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		if res.Cancelled {
			return fmt.Errorf("pick cancelled")
		}
		for _, h := range res.Hidden {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", h.Name, h.Value)
		}
		return nil
	},
}

func init() {
	f := pickCmd.Flags()
	f.StringVar(&pickURL, "url", "", "picker endpoint of a running admin")
	f.StringVar(&pickModel, "model", "", "owner model, such as Title")
	f.StringVar(&pickField, "field", "", "association field, such as book")
	f.StringVar(&pickRecord, "record", "", "owner record id")
	f.BoolVar(&pickMultiple, "multiple", false, "choose many records")
	f.StringVar(&pickParam, "param", "", "form parameter printed with each id")
	f.StringSliceVar(&pickSelected, "selected", nil, "ids selected on start")
}

// pickLabels reads the picker's placeholder and selection count from the
// same interface strings the admin pages use.
func pickLabels(l i18n.Localizer) (string, func(int) string) {
	placeholder := l.T(repository.UIKey("select_placeholder"), "Select items...")
	return placeholder, func(n int) string {
		return l.T(repository.UIKey("selected_count"), "%{count} selected", i18n.Vars{"count": n})
	}
}

// pickFetcher builds the candidate source and a title for the picker. done
// releases what the source holds open.
func pickFetcher(ctx context.Context) (fetcher picker.Fetcher, title string, done func(), err error) {
	if pickURL != "" {
		f, err := httpfetch.New(pickURL)
		if err != nil {
			return nil, "", nil, err
		}
		if pickParam == "" {
			pickParam = "ids"
		}
		return f, pickURL, func() {}, nil
	}
	if pickModel == "" || pickField == "" {
		return nil, "", nil, fmt.Errorf("either --url or both --model and --field are required")
	}

	admin, err := openAdmin(ctx, cfg, logger)
	if err != nil {
		return nil, "", nil, err
	}
	done = func() { _ = admin.Close() }
	reg := admin.Registry()
	owner, err := reg.Lookup(pickModel)
	if err != nil {
		done()
		return nil, "", nil, err
	}
	bound, err := owner.Bind(pickField)
	if err != nil {
		done()
		return nil, "", nil, err
	}
	if pickParam == "" {
		pickParam = bound.ParamKey()
	}
	pickMultiple = bound.Field().Many()

	return localFetcher(reg, bound), owner.SingularName() + ": " + owner.Label(bound.Field()), done, nil
}

// localFetcher resolves candidates in process, the way the picker endpoint
// does.
func localFetcher(reg *repository.Registry, bound repository.BoundField) picker.Fetcher {
	owner := bound.Repository()
	return picker.FetchFunc(func(ctx context.Context, query string) ([]picker.Option, error) {
		res, err := pickers.Resolve(ctx, reg, pickers.Request{
			Model:    owner.ID(),
			Field:    bound.Name(),
			RecordID: pickRecord,
			Query:    query,
			Multiple: bound.Field().Many(),
		})
		if err != nil {
			return nil, err
		}
		out := make([]picker.Option, len(res.Candidates))
		for i, c := range res.Candidates {
			out[i] = picker.Option{ID: c.ID, Label: c.Label, Selected: c.Selected}
		}
		return out, nil
	})
}
