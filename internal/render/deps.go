package render

import (
	"text/template"
	"text/template/parse"

	"git.home.luguber.info/inful/pagesmith/internal/util/sets"
)

// Dependencies lists the source paths text references with a literal
// argument, either as `source "path"` or as `index .src "path"`, in order of
// first appearance. Calls to templates defined in the macro library are
// followed, so a file picks up the references of the macros it invokes.
// Dynamic references are not visible to the scan.
func (r *Renderer) Dependencies(name, text string) ([]string, error) {
	own, err := r.parseFile(name, text)
	if err != nil {
		return nil, err
	}
	// with the macro library, so invoked definitions resolve as in Render
	full, err := r.parse(name, text, nil)
	if err != nil {
		return nil, err
	}

	s := &scan{
		lookup:  full.Lookup,
		found:   sets.NewOrdered[string](),
		visited: sets.New[string](),
	}
	for _, tpl := range own.Templates() {
		if tpl.Tree == nil || tpl.Name() == macroTemplateName {
			continue
		}
		s.visited.Add(tpl.Name())
		s.walk(tpl.Tree.Root)
	}
	return s.found.Items(), nil
}

type scan struct {
	lookup  func(name string) *template.Template
	found   *sets.Ordered[string]
	visited sets.Set[string]
}

func (s *scan) walk(node parse.Node) {
	switch n := node.(type) {
	case nil:
		return
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			s.walk(c)
		}
	case *parse.ActionNode:
		s.walk(n.Pipe)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			s.walk(cmd)
		}
	case *parse.CommandNode:
		if dep, ok := reference(n); ok {
			s.found.Add(dep)
		}
		for _, arg := range n.Args {
			s.walk(arg)
		}
	case *parse.IfNode:
		s.walkBranch(&n.BranchNode)
	case *parse.RangeNode:
		s.walkBranch(&n.BranchNode)
	case *parse.WithNode:
		s.walkBranch(&n.BranchNode)
	case *parse.TemplateNode:
		s.walk(n.Pipe)
		s.follow(n.Name)
	}
}

func (s *scan) walkBranch(b *parse.BranchNode) {
	s.walk(b.Pipe)
	s.walk(b.List)
	s.walk(b.ElseList)
}

// follow walks the body of an invoked template once.
func (s *scan) follow(name string) {
	if !s.visited.Add(name) {
		return
	}
	if tpl := s.lookup(name); tpl != nil && tpl.Tree != nil {
		s.walk(tpl.Tree.Root)
	}
}

// reference recognises `source "p"`, `index .src "p"` and `index $.src "p"`.
func reference(cmd *parse.CommandNode) (string, bool) {
	if len(cmd.Args) < 2 {
		return "", false
	}
	ident, ok := cmd.Args[0].(*parse.IdentifierNode)
	if !ok {
		return "", false
	}
	switch ident.Ident {
	case "source":
		if s, ok := cmd.Args[1].(*parse.StringNode); ok {
			return s.Text, true
		}
	case "index":
		if len(cmd.Args) < 3 || !isSrcField(cmd.Args[1]) {
			return "", false
		}
		if s, ok := cmd.Args[2].(*parse.StringNode); ok {
			return s.Text, true
		}
	}
	return "", false
}

func isSrcField(n parse.Node) bool {
	switch f := n.(type) {
	case *parse.FieldNode:
		return len(f.Ident) == 1 && f.Ident[0] == "src"
	case *parse.VariableNode:
		return len(f.Ident) == 2 && f.Ident[0] == "$" && f.Ident[1] == "src"
	}
	return false
}
