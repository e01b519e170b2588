package actions

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	got := Parse("scroll:500, click:#btn ,wait:250,hover:.menu,type:#q:hello: world,js:document.body.classList.add('dark'),waitfor:[data-theme=\"dark\"]")
	want := []Action{
		Scroll{Y: 500},
		Click{Selector: "#btn"},
		Wait{Duration: 250 * time.Millisecond},
		Hover{Selector: ".menu"},
		TypeText{Selector: "#q", Text: "hello: world"},
		RunScript{Code: "document.body.classList.add('dark')"},
		WaitForSelector{Selector: `[data-theme="dark"]`},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestParse_CommasInsideScriptDoNotSplit(t *testing.T) {
	got := Parse("js:document.documentElement.setAttribute('data-theme', 'dark'),wait:1000")
	if len(got) != 2 {
		t.Fatalf("got %d actions, want 2: %#v", len(got), got)
	}
	if rs, ok := got[0].(RunScript); !ok || rs.Code != "document.documentElement.setAttribute('data-theme', 'dark')" {
		t.Errorf("first action = %#v", got[0])
	}
}

func TestParse_SkipsUnknownAndMalformed(t *testing.T) {
	got := Parse("dance:fast,click:,,scroll:abc,wait:-5")
	want := []Action{Scroll{Y: 0}, Wait{Duration: DefaultWait}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
	if Parse("") != nil {
		t.Error("Parse(\"\") should be empty")
	}
}

type fakeTarget struct {
	calls     []string
	failWaitF map[string]bool
	cancel    context.CancelFunc
}

func (f *fakeTarget) EvaluateScript(_ context.Context, expr string, _ any) error {
	f.calls = append(f.calls, "eval:"+expr)
	return nil
}

func (f *fakeTarget) Click(_ context.Context, sel string) error {
	f.calls = append(f.calls, "click:"+sel)
	return nil
}

func (f *fakeTarget) Hover(_ context.Context, sel string) error {
	f.calls = append(f.calls, "hover:"+sel)
	return nil
}

func (f *fakeTarget) Type(_ context.Context, sel, text string) error {
	f.calls = append(f.calls, "type:"+sel+"="+text)
	if f.cancel != nil {
		f.cancel()
		return context.Canceled
	}
	return nil
}

func (f *fakeTarget) WaitForSelector(_ context.Context, sel string, timeout time.Duration) error {
	f.calls = append(f.calls, "waitfor:"+sel+"@"+timeout.String())
	if f.failWaitF[sel] {
		return errors.New("timeout")
	}
	return nil
}

func (f *fakeTarget) Wait(_ context.Context, d time.Duration) error {
	f.calls = append(f.calls, "sleep:"+d.String())
	return nil
}

func TestRun_DispatchesInOrder(t *testing.T) {
	target := &fakeTarget{}
	list := []Action{
		Scroll{Y: 300},
		Click{Selector: "#go"},
		Wait{Duration: 2 * time.Second},
		WaitForSelector{Selector: ".ready"},
	}
	if err := Run(context.Background(), target, list); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{
		"eval:window.scrollTo({top: 300, behavior: 'smooth'})",
		"sleep:500ms",
		"waitfor:#go@3s",
		"click:#go",
		"sleep:500ms",
		"sleep:2s",
		"waitfor:.ready@5s",
	}
	if !reflect.DeepEqual(target.calls, want) {
		t.Errorf("calls =\n%v\nwant\n%v", target.calls, want)
	}
}

func TestRun_FailedActionDoesNotStopSequence(t *testing.T) {
	target := &fakeTarget{failWaitF: map[string]bool{"#missing": true}}
	list := []Action{Click{Selector: "#missing"}, Hover{Selector: "#there"}}

	if err := Run(context.Background(), target, list); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, c := range target.calls {
		if c == "click:#missing" {
			t.Error("clicked an element that never appeared")
		}
	}
	if target.calls[len(target.calls)-2] != "hover:#there" {
		t.Errorf("hover did not run after the failed click: %v", target.calls)
	}
}

func TestRun_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	target := &fakeTarget{cancel: cancel}
	list := []Action{TypeText{Selector: "#q", Text: "hi"}, Click{Selector: "#after"}}

	if err := Run(ctx, target, list); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	for _, c := range target.calls {
		if strings.HasPrefix(c, "click:") {
			t.Error("ran an action after cancellation")
		}
	}
}

func TestWrapScript(t *testing.T) {
	got := WrapScript(`alert("hi")`)
	if !strings.Contains(got, `new Function("alert(\"hi\")")`) {
		t.Errorf("WrapScript() = %s", got)
	}
}
