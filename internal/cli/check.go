package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/models"
)

func newCheckCmd() *cobra.Command {
	var answersPath, filesPath string
	cmd := &cobra.Command{
		Use:   "check FORM.json",
		Short: "Validate a form definition and optionally evaluate answers",
		Long: `Check a form definition offline. The file holds either a JSON array of
fields or a form object with a "fields" member.

With --answers the answer set is run through visibility, validation and
assembly exactly as a live submission would be. --files maps file field ids
to already uploaded files ({"cv": [{"name": "cv.pdf", "size": 1024}]}).

Examples:
  oxiforms check form.json
  oxiforms check form.json --answers answers.json
  oxiforms check form.json --answers answers.json --files files.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := printer{w: cmd.OutOrStdout()}

			fields, err := readFields(args[0])
			if err != nil {
				return err
			}
			if err := engine.CheckRules(fields); err != nil {
				out.failure("%v", err)
				return errors.New("form definition is invalid")
			}
			out.success("%d fields, conditional rules OK", len(fields))

			if answersPath == "" {
				return nil
			}
			var answers engine.Answers
			if err := readJSONFile(answersPath, &answers); err != nil {
				return err
			}
			files := engine.Files{}
			if filesPath != "" {
				if err := readJSONFile(filesPath, &files); err != nil {
					return err
				}
			}
			return evaluate(out, fields, answers, files)
		},
	}
	cmd.Flags().StringVar(&answersPath, "answers", "", "JSON file with answers keyed by field id")
	cmd.Flags().StringVar(&filesPath, "files", "", "JSON file with uploaded files keyed by field id")
	return cmd
}

func evaluate(out printer, fields []models.Field, answers engine.Answers, files engine.Files) error {
	visible, err := engine.Visible(fields, answers)
	if err != nil {
		return err
	}
	out.section("Visible fields")
	for _, f := range visible {
		out.muted("  %s (%s) %s", f.ID, f.Type, f.Label)
	}
	if hidden := len(fields) - len(visible); hidden > 0 {
		out.info("%d field(s) hidden by conditional rules", hidden)
	}

	out.section("Result")
	record, err := engine.Evaluate(fields, answers, files, engine.Metadata{})
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		for _, v := range verr.Violations {
			out.failure("%s: %s", v.Field, v.Reason)
		}
		return fmt.Errorf("submission rejected: %d violation(s)", len(verr.Violations))
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record.Data, "", "  ")
	if err != nil {
		return err
	}
	out.success("submission accepted")
	fmt.Fprintln(out.w, string(data))
	return nil
}

// readFields accepts a bare field array or a form object.
func readFields(path string) ([]models.Field, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var fields []models.Field
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return fields, nil
	}
	var form models.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return form.Fields, nil
}

func readJSONFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
