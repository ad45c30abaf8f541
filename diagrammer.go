package mpmk

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
)

// Diagrammer writes task graphs in graphviz dot format.
type Diagrammer struct {
	RankDir string
}

func (dia *Diagrammer) WriteDot(w io.Writer, root mpmkore.Step) (err error) {
	defer func() {
		if p := recover(); p != nil {
			switch p := p.(type) {
			case error:
				err = p
			case string:
				err = errors.New(p)
			default:
				err = fmt.Errorf("panic: %+v", p)
			}
		}
	}()

	dia.startDot(w, root)
	done := make(map[mpmkore.Step]bool)
	dia.step(w, root, done)
	dia.endDot(w)
	return nil
}

func (dia *Diagrammer) startDot(w io.Writer, root mpmkore.Step) {
	fmt.Fprintf(w, "digraph \"%s\" {\n", escDotID(root.Name()))
	if dia.RankDir != "" {
		fmt.Fprintf(w, "\trankdir=\"%s\"\n", escDotID(dia.RankDir))
	}
}

func (dia *Diagrammer) endDot(w io.Writer) {
	fmt.Fprintln(w, "}")
}

func (dia *Diagrammer) step(w io.Writer, s mpmkore.Step, done map[mpmkore.Step]bool) {
	if done[s] {
		return
	}
	done[s] = true
	switch s := s.(type) {
	case *mpmkore.Task:
		style := "rounded"
		if s.Incremental {
			style = "rounded,bold"
		}
		fmt.Fprintf(w, "\t\"%p\" [shape=box,style=\"%s\",label=\"%s\\n%s\"];\n",
			s,
			style,
			escDotID(s.Name()),
			escDotID(s.Describe()),
		)
	case *mpmkore.Series:
		fmt.Fprintf(w, "\t\"%p\" [shape=cds,label=\"%s\"];\n", s, escDotID(s.Name()))
		for i, sub := range s.Steps {
			dia.step(w, sub, done)
			fmt.Fprintf(w, "\t\"%p\" -> \"%p\" [label=\"%d\"];\n", s, sub, i+1)
		}
	case *mpmkore.Parallel:
		fmt.Fprintf(w, "\t\"%p\" [shape=point];\n", s)
		for _, sub := range s.Steps {
			dia.step(w, sub, done)
			fmt.Fprintf(w, "\t\"%p\" -> \"%p\";\n", s, sub)
		}
	case *mpmkore.Watch:
		fmt.Fprintf(w, "\t\"%p\" [shape=ellipse,style=dashed,label=\"%s\"];\n", s, escDotID(s.Name()))
		for _, t := range s.Tasks() {
			dia.step(w, t, done)
			fmt.Fprintf(w, "\t\"%p\" -> \"%p\" [style=dashed];\n", s, t)
		}
	default:
		panic(fmt.Errorf("cannot draw step type %T", s))
	}
}

func escDotID(id string) string {
	return strings.ReplaceAll(id, "\"", "\\\"")
}
