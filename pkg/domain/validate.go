package domain

import "fmt"

// Validate checks the structural invariants of a workflow definition.
// It returns an *AggregateError listing every problem found, or nil.
//
// The engine tolerates most of these problems at run time (first match wins,
// dead ends go to review); Validate exists so authors can fix them before saving.
func Validate(w *Workflow) error {
	var errs []error
	report := func(nodeID, format string, args ...any) {
		errs = append(errs, &ValidationError{NodeID: nodeID, Reason: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]bool, len(w.Nodes))
	triggers := 0
	for _, n := range w.Nodes {
		if n.ID == "" {
			report("", "node of type %q has no id", n.Type)
			continue
		}
		if ids[n.ID] {
			report(n.ID, "duplicate node id")
		}
		ids[n.ID] = true
		if n.Type == NodeTypeTrigger {
			triggers++
		}
	}

	switch {
	case triggers == 0:
		report("", "workflow has no trigger node")
	case triggers > 1:
		report("", "workflow has %d trigger nodes, expected exactly one", triggers)
	}

	type edgeKey struct {
		source string
		tag    ConnectionType
	}
	seen := make(map[edgeKey]bool, len(w.Connections))
	for _, c := range w.Connections {
		if !ids[c.Source] {
			report(c.Source, "connection source does not exist")
		}
		if !ids[c.Target] {
			report(c.Source, "connection target %q does not exist", c.Target)
		}
		k := edgeKey{c.Source, c.Type}
		if seen[k] {
			report(c.Source, "more than one %q connection", c.Type)
		}
		seen[k] = true
	}

	for _, n := range w.Nodes {
		for _, v := range n.Variables {
			if v.Kind != VariableCalculated {
				continue
			}
			if err := CheckFormula(v.Formula); err != nil {
				report(n.ID, "calculated variable %q has an invalid formula: %v", v.ID, err)
			}
		}
	}

	scoreNodes := make(map[string]bool)
	for _, n := range w.NodesOfType(NodeTypeCreditScore) {
		scoreNodes[n.ID] = true
	}
	for _, n := range w.Nodes {
		cfg, ok := n.Config.(CreditScoreCheckConfig)
		if !ok {
			continue
		}
		if len(scoreNodes) == 0 {
			report(n.ID, "credit score check without a credit score node")
		} else if cfg.CreditScoreNodeID != "" && !scoreNodes[cfg.CreditScoreNodeID] {
			report(n.ID, "credit score node %q does not exist", cfg.CreditScoreNodeID)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
