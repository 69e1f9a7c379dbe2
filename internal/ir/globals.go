package ir

// collectGlobalRefs appends the names of all globals referenced by an
// initializer. Union initializers visit only the selected field, falling
// back to every field when the selector is out of range.
func collectGlobalRefs(val *Const, refs []string) []string {
	switch val.Kind {
	case ConstGlobalPointer:
		refs = append(refs, val.GlobalName)
	case ConstArray:
		for i := range val.Values {
			refs = collectGlobalRefs(&val.Values[i], refs)
		}
	case ConstStruct:
		if val.IsUnion {
			if idx := val.UnionFieldIndex; idx >= 0 && idx < len(val.Values) {
				refs = collectGlobalRefs(&val.Values[idx], refs)
			} else {
				for i := range val.Values {
					refs = collectGlobalRefs(&val.Values[i], refs)
				}
			}
		} else {
			for i := range val.Values {
				refs = collectGlobalRefs(&val.Values[i], refs)
			}
		}
	}
	return refs
}

// SortGlobalDefinitions reorders the module's globals so that every global
// appears after the globals its initializer references. Independent globals
// keep their declared order. When initializers form a reference cycle the
// acyclic prefix is sorted and the cyclic remainder keeps its declared
// order.
func (m *Module) SortGlobalDefinitions() {
	nodes := make(map[string]*Global, len(m.Globals))
	for _, g := range m.Globals {
		nodes[g.Name] = g
	}

	// dependency name -> names of globals whose initializers reference it
	edges := make(map[string][]string, len(m.Globals))
	inDegree := make(map[string]int, len(m.Globals))
	for _, g := range m.Globals {
		inDegree[g.Name] = 0
	}

	for _, g := range m.Globals {
		if !g.Initialized {
			continue
		}
		for _, ref := range collectGlobalRefs(&g.Value, nil) {
			// References to symbols not defined in this module are not edges.
			if _, ok := nodes[ref]; !ok {
				continue
			}
			edges[ref] = append(edges[ref], g.Name)
			inDegree[g.Name]++
		}
	}

	// Kahn's algorithm with a FIFO ready queue so that globals with no
	// mutual dependencies keep their declared order.
	var ready []*Global
	for _, g := range m.Globals {
		if inDegree[g.Name] == 0 {
			ready = append(ready, g)
		}
	}

	sorted := make([]*Global, 0, len(m.Globals))
	for len(ready) > 0 {
		u := ready[0]
		ready = ready[1:]
		sorted = append(sorted, u)

		for _, vName := range edges[u.Name] {
			if deg := inDegree[vName]; deg > 0 {
				inDegree[vName] = deg - 1
				if deg == 1 {
					ready = append(ready, nodes[vName])
				}
			}
		}
	}

	if len(sorted) < len(m.Globals) {
		placed := make(map[string]bool, len(sorted))
		for _, g := range sorted {
			placed[g.Name] = true
		}
		for _, g := range m.Globals {
			if !placed[g.Name] {
				sorted = append(sorted, g)
				placed[g.Name] = true
			}
		}
	}

	m.Globals = sorted
}
