package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"

	"github.com/finecision/finecision"
	"github.com/finecision/finecision/internal/presentation/graph"
	"github.com/finecision/finecision/internal/presentation/tui"
	"github.com/finecision/finecision/pkg/domain"
)

// RunOptions configures a one-shot evaluation of a workflow document.
type RunOptions struct {
	WorkflowPath string
	VarsFile     string
	Vars         []string
	// JSON prints machine-readable output instead of a report.
	JSON bool
}

func (o RunOptions) load() (*domain.Workflow, map[string]any, error) {
	wf, err := finecision.Load(o.WorkflowPath)
	if err != nil {
		return nil, nil, err
	}
	vars, err := LoadVariables(o.VarsFile, o.Vars)
	if err != nil {
		return nil, nil, err
	}
	return wf, vars, nil
}

// RunDecision resolves calculated variables, decides the workflow and prints
// the trace.
func RunDecision(ctx context.Context, engine *finecision.Engine, opts RunOptions, w io.Writer) (*domain.Trace, error) {
	wf, vars, err := opts.load()
	if err != nil {
		return nil, err
	}

	trace, err := engine.Explain(ctx, wf, engine.Resolve(wf, vars))
	if err != nil {
		return nil, err
	}

	if opts.JSON {
		return trace, writeJSON(w, trace)
	}
	fmt.Fprintln(w, tui.Badge(trace.Result.Status, profileOf(w)))
	return trace, render(w, tui.DecisionReport(wf, trace))
}

// RunPreview prints the resolved variables and the score of partial inputs.
func RunPreview(engine *finecision.Engine, opts RunOptions, w io.Writer) error {
	wf, vars, err := opts.load()
	if err != nil {
		return err
	}

	preview := engine.Preview(wf, vars)
	if opts.JSON {
		return writeJSON(w, preview)
	}
	return render(w, tui.PreviewReport(preview))
}

// RunGraph prints the Mermaid flowchart of a workflow document. When variables
// are given, the decision path is highlighted.
func RunGraph(ctx context.Context, engine *finecision.Engine, opts RunOptions, w io.Writer) error {
	wf, vars, err := opts.load()
	if err != nil {
		return err
	}

	var overlay *graph.GraphOverlay
	if opts.VarsFile != "" || len(opts.Vars) > 0 {
		trace, err := engine.Explain(ctx, wf, engine.Resolve(wf, vars))
		if err != nil {
			return err
		}
		overlay = graph.OverlayOf(trace)
	}

	_, err = io.WriteString(w, graph.GenerateMermaid(wf, overlay))
	return err
}

// RunValidate validates each workflow document and reports every problem.
// It returns an error if any document is invalid.
func RunValidate(paths []string, w io.Writer) error {
	invalid := 0
	for _, path := range paths {
		wf, err := finecision.Load(path)
		if err == nil {
			err = finecision.Validate(wf)
		}
		if err == nil {
			printSystemMessage(w, "%s is valid", path)
			continue
		}

		invalid++
		details := domain.ValidationErrors(err)
		if len(details) == 0 {
			printSystemMessage(w, "%s: %v", path, err)
			continue
		}
		printSystemMessage(w, "%s has %d problem(s):", path, len(details))
		for _, d := range details {
			fmt.Fprintf(w, "    - %v\n", d)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d workflow(s) invalid", invalid, len(paths))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render prints markdown, styled when w is a terminal.
func render(w io.Writer, markdown string) error {
	f, ok := w.(*os.File)
	if !ok {
		_, err := io.WriteString(w, markdown)
		return err
	}
	out, err := tui.NewRenderer(f)(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func profileOf(w io.Writer) termenv.Profile {
	if f, ok := w.(*os.File); ok && tui.IsTerminal(f) {
		return termenv.NewOutput(f).ColorProfile()
	}
	return termenv.Ascii
}
