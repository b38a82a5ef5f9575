package layout

import (
	"errors"
	"fmt"
)

// ErrUnbalanced reports an End without a matching Begin.
var ErrUnbalanced = errors.New("layout: unbalanced end")

// Engine consumes layout instructions.
type Engine interface {
	Text(TextRun) error
	Image(Image) error
	Region(Region) error
	Begin(Box) error
	End() error
}

// AnnotationEngine is implemented by engines that want to know whether a
// Begin/End pair is diagnostic. Engines that do not implement it receive
// annotation boxes through Begin/End like any other box.
type AnnotationEngine interface {
	BeginAnnotation(Box) error
	EndAnnotation() error
}

// Replay feeds instructions to an engine in order.
func Replay(e Engine, instrs []Instruction) error {
	ann, hasAnn := e.(AnnotationEngine)
	depth := 0
	for i, in := range instrs {
		var err error
		switch in.Op {
		case OpText:
			err = e.Text(in.Run)
		case OpImage:
			err = e.Image(in.Image)
		case OpRegion:
			err = e.Region(in.Region)
		case OpBegin:
			depth++
			if in.Annotation && hasAnn {
				err = ann.BeginAnnotation(in.Box)
			} else {
				err = e.Begin(in.Box)
			}
		case OpEnd:
			if depth == 0 {
				return fmt.Errorf("instruction %d: %w", i, ErrUnbalanced)
			}
			depth--
			if in.Annotation && hasAnn {
				err = ann.EndAnnotation()
			} else {
				err = e.End()
			}
		default:
			err = fmt.Errorf("unknown op %d", in.Op)
		}
		if err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, in.Op, err)
		}
	}
	return nil
}

// Recorder is an Engine that stores the instructions it receives.
type Recorder struct {
	Instructions []Instruction
	annotate     []bool
}

func (r *Recorder) Text(run TextRun) error {
	r.Instructions = append(r.Instructions, Instruction{Op: OpText, Run: run})
	return nil
}

func (r *Recorder) Image(img Image) error {
	r.Instructions = append(r.Instructions, Instruction{Op: OpImage, Image: img})
	return nil
}

func (r *Recorder) Region(reg Region) error {
	r.Instructions = append(r.Instructions, Instruction{Op: OpRegion, Region: reg})
	return nil
}

func (r *Recorder) Begin(box Box) error {
	r.annotate = append(r.annotate, false)
	r.Instructions = append(r.Instructions, Instruction{Op: OpBegin, Box: box})
	return nil
}

func (r *Recorder) End() error {
	return r.end()
}

func (r *Recorder) BeginAnnotation(box Box) error {
	r.annotate = append(r.annotate, true)
	r.Instructions = append(r.Instructions, Instruction{Op: OpBegin, Box: box, Annotation: true})
	return nil
}

func (r *Recorder) EndAnnotation() error {
	return r.end()
}

func (r *Recorder) end() error {
	if len(r.annotate) == 0 {
		return ErrUnbalanced
	}
	ann := r.annotate[len(r.annotate)-1]
	r.annotate = r.annotate[:len(r.annotate)-1]
	r.Instructions = append(r.Instructions, Instruction{Op: OpEnd, Annotation: ann})
	return nil
}
