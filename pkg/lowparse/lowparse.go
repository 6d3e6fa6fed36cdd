// Package lowparse reads the low-level automaton graph file format: an
// HCL document whose top-level "automaton" block declares variable
// cardinalities and carries repeated "state" and "edge" blocks. This
// is the Go-ecosystem analogue of the original implementation's
// boost::graph::graphviz reader — a real attributed-graph file format
// rather than a bespoke ad hoc grammar, parsed with
// github.com/hashicorp/hcl/v2 the way opentofu and the rest of the
// HCL-consuming examples in the pack do: hclparse to get a *hcl.File,
// gohcl.DecodeBody to project it onto plain Go structs.
//
// Each edge's guard, constraint and update attributes hold a small
// inline expression language of their own (e.g. "x0 > 5 && x0 <= 10",
// "n0 := n0 + 1") — there is no off-the-shelf library for that in the
// reference pack, so it is parsed by hand in grammar.go.
package lowparse

import (
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/symon-run/symon/pkg/signature"
	"github.com/symon-run/symon/pkg/symon"
)

type fileRoot struct {
	Automaton automatonBlock `hcl:"automaton,block"`
}

type automatonBlock struct {
	Clocks  int          `hcl:"clock_variable_size,optional"`
	Params  int          `hcl:"params,optional"`
	Strings int          `hcl:"string_variable_size,optional"`
	Numbers int          `hcl:"number_variable_size,optional"`
	States  []stateBlock `hcl:"state,block"`
	Edges   []edgeBlock  `hcl:"edge,block"`
}

type stateBlock struct {
	Name    string `hcl:"name,label"`
	Initial bool   `hcl:"initial,optional"`
	Match   bool   `hcl:"match,optional"`
}

type edgeBlock struct {
	From              string   `hcl:"from"`
	To                string   `hcl:"to"`
	Action            string   `hcl:"action"`
	Guard             *string  `hcl:"guard,optional"`
	Reset             []int    `hcl:"reset,optional"`
	StringConstraints []string `hcl:"string_constraints,optional"`
	NumberConstraints []string `hcl:"number_constraints,optional"`
	UpdateNumbers     []string `hcl:"update_numbers,optional"`
	UpdateStrings     []string `hcl:"update_strings,optional"`
}

// Parse reads an automaton graph file from r, resolving edge actions
// against sig, and returns the assembled *symon.Automaton.
func Parse(r io.Reader, filename string, sig *signature.Signature) (*symon.Automaton, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lowparse: reading %s: %w", filename, err)
	}

	hclParser := hclparse.NewParser()
	f, diags := hclParser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("lowparse: %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("lowparse: %s: %w", filename, diags)
	}

	return build(root.Automaton, sig)
}

func build(ab automatonBlock, sig *signature.Signature) (*symon.Automaton, error) {
	card := symon.Cardinalities{Clocks: ab.Clocks, Params: ab.Params, Strings: ab.Strings, Numbers: ab.Numbers}
	a := symon.NewAutomaton(card)
	a.Params = ab.Params

	index := make(map[string]int, len(ab.States))
	for _, sb := range ab.States {
		idx := a.AddState(&symon.State{IsMatch: sb.Match, Transitions: make(map[symon.Action][]*symon.Transition)})
		index[sb.Name] = idx
		if sb.Initial {
			a.AddInitial(idx)
		}
	}

	for _, eb := range ab.Edges {
		from, ok := index[eb.From]
		if !ok {
			return nil, fmt.Errorf("lowparse: edge references unknown state %q", eb.From)
		}
		to, ok := index[eb.To]
		if !ok {
			return nil, fmt.Errorf("lowparse: edge references unknown state %q", eb.To)
		}
		action, ok := sig.ActionID(eb.Action)
		if !ok {
			return nil, fmt.Errorf("lowparse: edge references undeclared action %q", eb.Action)
		}

		t := &symon.Transition{Target: to, ResetVars: append([]int{}, eb.Reset...)}

		if eb.Guard != nil {
			atoms, err := parseGuardAtoms(*eb.Guard)
			if err != nil {
				return nil, fmt.Errorf("lowparse: edge %s->%s guard: %w", eb.From, eb.To, err)
			}
			t.Guard = symon.NewConcreteGuard(atoms...)
		}

		for _, s := range eb.StringConstraints {
			c, err := parseStringConstraint(s)
			if err != nil {
				return nil, fmt.Errorf("lowparse: edge %s->%s string constraint %q: %w", eb.From, eb.To, s, err)
			}
			t.StringConstraints = append(t.StringConstraints, c)
		}
		for _, s := range eb.NumberConstraints {
			c, err := parseNumberConstraint(s)
			if err != nil {
				return nil, fmt.Errorf("lowparse: edge %s->%s number constraint %q: %w", eb.From, eb.To, s, err)
			}
			t.NumberConstraints = append(t.NumberConstraints, c)
		}
		for _, s := range eb.UpdateStrings {
			u, err := parseStringUpdate(s)
			if err != nil {
				return nil, fmt.Errorf("lowparse: edge %s->%s string update %q: %w", eb.From, eb.To, s, err)
			}
			t.Update.StringUpdate = append(t.Update.StringUpdate, u)
		}
		for _, s := range eb.UpdateNumbers {
			u, err := parseNumberUpdate(s)
			if err != nil {
				return nil, fmt.Errorf("lowparse: edge %s->%s number update %q: %w", eb.From, eb.To, s, err)
			}
			t.Update.NumberUpdate = append(t.Update.NumberUpdate, u)
		}

		a.States[from].AddTransition(action, t)
	}

	return a, nil
}
