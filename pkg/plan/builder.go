package plan

import "github.com/orneryd/gqlgraph/pkg/gql"

// IndexCatalog answers whether a property index exists for Label.Property,
// letting the builder choose NodeIndexScan over NodeSeqScan. pkg/catalog
// implements this; pkg/plan only depends on the interface to avoid an
// import cycle.
type IndexCatalog interface {
	HasPropertyIndex(label, property string) bool
}

// noIndexes is used when the caller has no catalog available (e.g. tests),
// so every scan falls back to NodeSeqScan.
type noIndexes struct{}

func (noIndexes) HasPropertyIndex(string, string) bool { return false }

// NoIndexes is the zero-value IndexCatalog: never reports an index.
var NoIndexes IndexCatalog = noIndexes{}

// Build translates a logical plan into a physical plan one node at a time,
// following the exact default estimates the original physical builder
// used: NodeScan → NodeSeqScan{rows:1000, cost:100}, Expand →
// IndexedExpand{rows:1000, cost:200}, SingleRow → SingleRow{rows:1,
// cost:1}. Unrecognized logical shapes fall back to a conservative
// NodeSeqScan("fallback"); this builder covers every LogicalNode variant,
// so that fallback is dead in practice but kept for forward-compatibility
// with logical nodes a future optimizer pass might introduce.
func Build(lp *LogicalPlan, idx IndexCatalog) *PhysicalPlan {
	if lp == nil || lp.Root == nil {
		return nil
	}
	if idx == nil {
		idx = NoIndexes
	}
	return &PhysicalPlan{Root: buildNode(lp.Root, idx)}
}

func buildNode(n LogicalNode, idx IndexCatalog) PhysicalNode {
	switch ln := n.(type) {
	case *NodeScan:
		if len(ln.Labels) == 1 {
			if prop, ok := singleEqualityProperty(ln.Properties); ok && idx.HasPropertyIndex(ln.Labels[0], prop) {
				return &NodeIndexScan{
					estimate:   estimate{Rows: 100, Cost: 10},
					Variable:   ln.Variable,
					Label:      ln.Labels[0],
					Property:   prop,
					Properties: ln.Properties,
				}
			}
		}
		return &NodeSeqScan{
			estimate:   estimate{Rows: 1000, Cost: 100},
			Variable:   ln.Variable,
			Labels:     ln.Labels,
			Properties: ln.Properties,
		}
	case *Expand:
		return &IndexedExpand{
			estimate:   estimate{Rows: 1000, Cost: 200},
			From:       ln.From,
			EdgeVar:    ln.EdgeVar,
			To:         ln.To,
			EdgeLabels: ln.EdgeLabels,
			Direction:  ln.Direction,
			Properties: ln.Properties,
			Input:      buildNode(ln.Input, idx),
		}
	case *Join:
		left := buildNode(ln.Left, idx)
		right := buildNode(ln.Right, idx)
		return &PhysicalJoin{
			estimate: estimate{Rows: estimateRows(left) * estimateRows(right), Cost: estimateCost(left) + estimateCost(right)},
			Kind:     ln.Kind,
			On:       ln.On,
			Left:     left,
			Right:    right,
		}
	case *Filter:
		input := buildNode(ln.Input, idx)
		return &PhysicalFilter{estimate: estimate{Rows: estimateRows(input), Cost: estimateCost(input) + 10}, Predicate: ln.Predicate, Input: input}
	case *Project:
		input := buildNode(ln.Input, idx)
		return &PhysicalProject{estimate: estimate{Rows: estimateRows(input), Cost: estimateCost(input) + 5}, Items: ln.Items, Distinct: ln.Distinct, Aggregate: ln.Aggregate, Input: input}
	case *Sort:
		input := buildNode(ln.Input, idx)
		return &PhysicalSort{estimate: estimate{Rows: estimateRows(input), Cost: estimateCost(input) + float64(estimateRows(input))}, Items: ln.Items, Input: input}
	case *Limit:
		input := buildNode(ln.Input, idx)
		return &PhysicalLimit{estimate: estimate{Rows: estimateRows(input), Cost: estimateCost(input)}, Skip: ln.Skip, Count: ln.Count, Input: input}
	case *Unwind:
		input := buildNode(ln.Input, idx)
		return &PhysicalUnwind{estimate: estimate{Rows: estimateRows(input) * 10, Cost: estimateCost(input) + 10}, List: ln.List, Alias: ln.Alias, Input: input}
	case *SingleRow:
		return &SingleRowPhysical{estimate: estimate{Rows: 1, Cost: 1}}
	}
	return &NodeSeqScan{estimate: estimate{Rows: 1000, Cost: 100}, Variable: "fallback", Labels: []string{"Node"}}
}

// singleEqualityProperty reports the sole property key of a node pattern's
// inline property map, the shape the builder treats as an equality
// predicate eligible for an index lookup (`(n:Person {name: "Ada"})`).
func singleEqualityProperty(props map[string]gql.Expr) (string, bool) {
	if len(props) != 1 {
		return "", false
	}
	for k := range props {
		return k, true
	}
	return "", false
}

func estimateRows(n PhysicalNode) int {
	switch v := n.(type) {
	case *NodeSeqScan:
		return v.Rows
	case *NodeIndexScan:
		return v.Rows
	case *IndexedExpand:
		return v.Rows
	case *PhysicalJoin:
		return v.Rows
	case *PhysicalFilter:
		return v.Rows
	case *PhysicalProject:
		return v.Rows
	case *PhysicalSort:
		return v.Rows
	case *PhysicalLimit:
		return v.Rows
	case *PhysicalUnwind:
		return v.Rows
	case *SingleRowPhysical:
		return v.Rows
	}
	return 1000
}

func estimateCost(n PhysicalNode) float64 {
	switch v := n.(type) {
	case *NodeSeqScan:
		return v.Cost
	case *NodeIndexScan:
		return v.Cost
	case *IndexedExpand:
		return v.Cost
	case *PhysicalJoin:
		return v.Cost
	case *PhysicalFilter:
		return v.Cost
	case *PhysicalProject:
		return v.Cost
	case *PhysicalSort:
		return v.Cost
	case *PhysicalLimit:
		return v.Cost
	case *PhysicalUnwind:
		return v.Cost
	case *SingleRowPhysical:
		return v.Cost
	}
	return 100
}
