package domain

import "fmt"

// TransitionPolicy decides which estado changes are allowed on a claim.
type TransitionPolicy interface {
	Name() string
	Allowed(from, to ClaimStatus) bool
}

const (
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)

type permissivePolicy struct{}

// PermissivePolicy allows every change between known statuses, including reopening.
func PermissivePolicy() TransitionPolicy {
	return permissivePolicy{}
}

func (permissivePolicy) Name() string { return PolicyPermissive }

func (permissivePolicy) Allowed(from, to ClaimStatus) bool {
	return from.Valid() && to.Valid()
}

// GraphPolicy allows only the listed edges. Staying in place is always allowed.
type GraphPolicy struct {
	name  string
	edges map[ClaimStatus]map[ClaimStatus]struct{}
}

// NewGraphPolicy builds a policy from an adjacency list.
func NewGraphPolicy(name string, edges map[ClaimStatus][]ClaimStatus) *GraphPolicy {
	p := &GraphPolicy{name: name, edges: make(map[ClaimStatus]map[ClaimStatus]struct{}, len(edges))}
	for from, targets := range edges {
		set := make(map[ClaimStatus]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		p.edges[from] = set
	}
	return p
}

func (p *GraphPolicy) Name() string { return p.name }

func (p *GraphPolicy) Allowed(from, to ClaimStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	_, ok := p.edges[from][to]
	return ok
}

// StrictPolicy follows the forward lifecycle with a reopen from resuelto.
func StrictPolicy() TransitionPolicy {
	return NewGraphPolicy(PolicyStrict, map[ClaimStatus][]ClaimStatus{
		StatusPendiente: {StatusAsignado, StatusCerrado},
		StatusAsignado:  {StatusPendiente, StatusEnProceso, StatusCerrado},
		StatusEnProceso: {StatusAsignado, StatusResuelto},
		StatusResuelto:  {StatusEnProceso, StatusCerrado},
		StatusCerrado:   {},
	})
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", PolicyPermissive:
		return PermissivePolicy(), nil
	case PolicyStrict:
		return StrictPolicy(), nil
	}
	return nil, fmt.Errorf("unknown transition policy %q", name)
}
