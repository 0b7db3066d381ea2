package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/reposettings/api"
	"github.com/c360studio/reposettings/settings"
	"github.com/c360studio/reposettings/validator"
)

func validateCmd(a *app) *cobra.Command {
	var (
		in     settings.Input
		format string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate settings and report every failing field",
		Long: `Validate probes the broker and the lookup service and checks the JWT
expiry expression. It prints every failure and exits with status 1 when
any field is invalid.`,
		Example: `  reposettings validate --broker-url nats://localhost:4222 --jwt-expiry "2 weeks"
  reposettings validate --broker-url nats://mq:4222 --jwt-expiry "1 day" \
      --gemini-url https://gemini.example.org --bundle article:node --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
			if err := a.setup(cmd); err != nil {
				return err
			}

			v, err := newValidator(a.cfg, a.logger, nil)
			if err != nil {
				return fmt.Errorf("create validator: %w", err)
			}

			in.SelectedBundles = settings.NormalizeBundles(in.SelectedBundles)
			for _, id := range in.SelectedBundles {
				if _, err := settings.ParseBundle(id); err != nil {
					a.logger.Warn("Unrecognised bundle identifier",
						"field", settings.FieldGeminiPseudo, "bundle", id, "error", err)
				}
			}

			res := v.ValidateAll(cmd.Context(), in)

			out := cmd.OutOrStdout()
			if format == "json" {
				err = printJSON(out, res)
			} else {
				err = printText(out, res, time.Now())
			}
			if err != nil {
				return err
			}

			if !res.Valid() {
				return errSettingsInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.BrokerURL, "broker-url", "", "Message broker URL")
	cmd.Flags().StringVar(&in.JWTExpiry, "jwt-expiry", "", `JWT expiry interval, e.g. "2 weeks"`)
	cmd.Flags().StringVar(&in.GeminiURL, "gemini-url", "", "Lookup service base URL")
	cmd.Flags().StringArrayVar(&in.SelectedBundles, "bundle", nil, "Bundle showing the repository URL field, as name:entity_type (repeatable)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")

	return cmd
}

func printText(w io.Writer, res *validator.Result, now time.Time) error {
	if res.Valid() {
		if _, err := fmt.Fprintln(w, "Settings are valid."); err != nil {
			return err
		}
		if ttl, err := res.Expiry.Duration(now); err == nil {
			_, err := fmt.Fprintf(w, "JWT lifetime: %s\n", ttl)
			return err
		}
		return nil
	}
	for _, fe := range res.Errors {
		if _, err := fmt.Fprintf(w, "%s: %s\n", fe.Field, fe.Message()); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(w io.Writer, res *validator.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewValidateResponse(res))
}
