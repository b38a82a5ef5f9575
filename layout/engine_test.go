package layout

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleStream() []Instruction {
	return []Instruction{
		{Op: OpBegin, Box: Box{Role: RoleDebug, Label: "Paragraph"}, Annotation: true},
		{Op: OpBegin, Box: Box{Role: RoleParagraph}},
		{Op: OpText, Run: TextRun{Text: "Hello ", Style: TextStyle{Bold: true}}},
		{Op: OpText, Run: TextRun{Text: "link", Link: "https://example.com"}},
		{Op: OpImage, Image: Image{Source: "a.png", Placeholder: true, Alt: "a"}},
		{Op: OpRegion, Region: Region{Role: RoleMath, Width: 2, Height: 1, Source: "x"}},
		{Op: OpEnd},
		{Op: OpEnd, Annotation: true},
	}
}

func TestReplayIntoRecorderRoundTrips(t *testing.T) {
	in := sampleStream()
	var rec Recorder
	if err := Replay(&rec, in); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !reflect.DeepEqual(rec.Instructions, in) {
		t.Fatalf("recorded stream differs:\n got %+v\nwant %+v", rec.Instructions, in)
	}
}

func TestReplayUnbalancedEnd(t *testing.T) {
	var rec Recorder
	err := Replay(&rec, []Instruction{{Op: OpEnd}})
	if !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("expected ErrUnbalanced, got %v", err)
	}
}

type plainEngine struct {
	begins int
	ends   int
}

func (p *plainEngine) Text(TextRun) error   { return nil }
func (p *plainEngine) Image(Image) error    { return nil }
func (p *plainEngine) Region(Region) error  { return nil }
func (p *plainEngine) Begin(Box) error      { p.begins++; return nil }
func (p *plainEngine) End() error           { p.ends++; return nil }

func TestReplayAnnotationsFallBackToBeginEnd(t *testing.T) {
	var e plainEngine
	if err := Replay(&e, sampleStream()); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if e.begins != 2 || e.ends != 2 {
		t.Fatalf("expected 2 begins and ends, got %d/%d", e.begins, e.ends)
	}
}

func TestContentStripsAnnotations(t *testing.T) {
	got := Content(sampleStream())
	if len(got) != 6 {
		t.Fatalf("expected 6 content instructions, got %d", len(got))
	}
	for _, in := range got {
		if in.Annotation {
			t.Fatalf("annotation leaked into content: %+v", in)
		}
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleStream()); err != nil {
		t.Fatalf("fprint: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"~begin debug label=\"Paragraph\"",
		"  begin paragraph",
		"    text \"Hello \" [bold]",
		"-> https://example.com",
		"placeholder \"a.png\"",
		"region math 2.00x1.00 \"x\"",
		"~end",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestEffectiveScale(t *testing.T) {
	if (TextStyle{}).EffectiveScale() != 1 {
		t.Fatalf("zero scale should be 1")
	}
	if (TextStyle{Scale: 1.5}).EffectiveScale() != 1.5 {
		t.Fatalf("unexpected scale")
	}
}
