package analyzer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"roomfit/internal/domain"
)

// 1x1 PNG
var pngPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")

const goodJSON = `{
  "suitable": true,
  "suitabilityScore": 82,
  "colorMatch": "Good",
  "styleMatch": "excellent",
  "recommendations": ["Place it under the window", "Add a rug", "Keep walkways clear"],
  "alternativeColors": ["Sand", "Sage", "Charcoal"],
  "reasoning": "The room is bright and the sofa fits the wall."
}`

type fakeVision struct {
	mu     sync.Mutex
	text   string
	err    error
	block  chan struct{}
	prompt string
	calls  int
}

func (f *fakeVision) Generate(ctx context.Context, prompt string, _ Image) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompt = prompt
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func sofa() ProductDetails {
	p := domain.Product{Name: "Velvet Sofa 3-Seater", Category: "Living Room", Description: "Deep seats", Price: 145000}
	p.Color.String, p.Color.Valid = "Emerald Green", true
	p.SetDimensions(&domain.Dimensions{Width: 210, Height: 85, Depth: 95})
	return DetailsFrom(p)
}

func TestStripFences(t *testing.T) {
	cases := []string{
		"```json\n" + goodJSON + "\n```",
		"```\n" + goodJSON + "\n```",
		"  " + goodJSON + "\n",
		goodJSON,
	}
	want := strings.TrimSpace(goodJSON)
	for _, in := range cases {
		got := StripFences(in)
		if got != want {
			t.Errorf("StripFences(%q) = %q", in, got)
		}
		if StripFences(got) != got {
			t.Errorf("StripFences not idempotent on %q", got)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	want := Result{
		Suitable:          true,
		SuitabilityScore:  82,
		ColorMatch:        "Good",
		StyleMatch:        "excellent",
		Recommendations:   []string{"Place it under the window", "Add a rug", "Keep walkways clear"},
		AlternativeColors: []string{"Sand", "Sage", "Charcoal"},
		Reasoning:         "The room is bright and the sofa fits the wall.",
	}
	for _, in := range []string{goodJSON, "```json\n" + goodJSON + "\n```"} {
		got, err := Parse(in)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Parse = %+v, want %+v", got, want)
		}
	}
	got, _ := Parse(goodJSON)
	if got.ColorLevel() != LevelGood || NormalizeLevel("Stellar") != LevelUnknown {
		t.Fatal("level normalization")
	}
}

func TestParse_Rejects(t *testing.T) {
	bad := []string{
		"not json",
		`{"suitable": true}`,
		strings.Replace(goodJSON, "82", "140", 1),
		strings.Replace(goodJSON, "82", "-1", 1),
		`["a","b"]`,
	}
	for _, in := range bad {
		if _, err := Parse(in); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q) err = %v, want ErrMalformed", in, err)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(sofa())
	for _, want := range []string{
		"- Name: Velvet Sofa 3-Seater", "- Category: Living Room", "- Color: Emerald Green",
		"- Dimensions: 210W x 85H x 95D cm", "- Price: LKR 145000", `"suitabilityScore"`, `"alternativeColors"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "- Material:") {
		t.Error("absent material should be omitted")
	}
}

func TestAnalyze_NetworkErrorFallsBack(t *testing.T) {
	a := New(&fakeVision{err: errors.New("network request failed")}, nil, time.Second)
	res := a.Analyze(context.Background(), Image{}, sofa())

	if res.SuitabilityScore != 50 || res.ColorMatch != "unknown" || res.StyleMatch != "unknown" || !res.Suitable {
		t.Fatalf("fallback fields: %+v", res)
	}
	if !strings.Contains(res.Reasoning, "Analysis failed") || !strings.Contains(res.Reasoning, "network request failed") {
		t.Fatalf("reasoning: %q", res.Reasoning)
	}
	if len(res.Recommendations) != 3 || len(res.AlternativeColors) != 3 {
		t.Fatalf("fallback lists: %+v", res)
	}
}

func TestAnalyze_MalformedAndUnconfigured(t *testing.T) {
	res := New(&fakeVision{text: "I think it fits!"}, nil, 0).Analyze(context.Background(), Image{}, sofa())
	if res.SuitabilityScore != 50 || !strings.Contains(res.Reasoning, "Analysis failed") {
		t.Fatalf("malformed reply should fall back: %+v", res)
	}
	res = New(nil, nil, 0).Analyze(context.Background(), Image{}, sofa())
	if !strings.Contains(res.Reasoning, ErrNotConfigured.Error()) {
		t.Fatalf("unconfigured: %+v", res)
	}
}

func TestColors(t *testing.T) {
	v := &fakeVision{text: "```json\n[\"Ivory\",\"Teal\",\"Rust\",\"Slate\",\"Oak\"]\n```"}
	a := New(nil, v, 0)
	got := a.Colors(context.Background(), Image{}, "bedroom")
	if len(got) != 5 || got[0] != "Ivory" {
		t.Fatalf("colors: %v", got)
	}
	if !strings.Contains(v.prompt, "bedroom space") {
		t.Fatalf("room type not in prompt: %s", v.prompt)
	}
	v.text = "nope"
	if got := a.Colors(context.Background(), Image{}, ""); !reflect.DeepEqual(got, FallbackColors()) {
		t.Fatalf("want fallback colors, got %v", got)
	}
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(pngPixel)
	if err != nil || img.MIME != "image/png" || img.Format() != "png" {
		t.Fatalf("png: %+v err=%v", img, err)
	}
	if _, err := DecodeImage(nil); !errors.Is(err, ErrProcessImage) {
		t.Fatal("empty data accepted")
	}
	if _, err := DecodeImage([]byte("hello, plain text")); !errors.Is(err, ErrProcessImage) {
		t.Fatal("text accepted as image")
	}
	if _, err := ReadImage(bytes.NewReader(make([]byte, MaxImageBytes+10))); !errors.Is(err, ErrProcessImage) {
		t.Fatal("oversize accepted")
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngPixel)
	if _, err := DecodeBase64(dataURL); err != nil {
		t.Fatalf("data url: %v", err)
	}
	if _, err := DecodeBase64("%%%"); !errors.Is(err, ErrProcessImage) {
		t.Fatal("bad base64 accepted")
	}
}

func TestDecodeBase64_LargestImage(t *testing.T) {
	data := make([]byte, MaxImageBytes)
	copy(data, pngPixel)
	enc := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	if len(enc) >= MaxRequestBytes {
		t.Fatalf("encoded %d bytes does not fit the %d byte request cap", len(enc), MaxRequestBytes)
	}
	if _, err := DecodeBase64(enc); err != nil {
		t.Fatalf("largest accepted image rejected: %v", err)
	}

	over := base64.StdEncoding.EncodeToString(append(data, 0))
	if _, err := DecodeBase64(over); !errors.Is(err, ErrProcessImage) {
		t.Fatalf("oversize image: want ErrProcessImage, got %v", err)
	}
}

func TestSession_Flow(t *testing.T) {
	img, _ := DecodeImage(pngPixel)
	a := New(&fakeVision{text: goodJSON}, nil, time.Second)
	s := a.NewSession("s1", sofa(), Permissions{Camera: false, Gallery: true})

	if _, err := s.Analyze(context.Background()); !errors.Is(err, ErrNoImage) {
		t.Fatalf("want ErrNoImage, got %v", err)
	}

	var perr *PermissionError
	if err := s.SetImage(SourceCamera, img); !errors.As(err, &perr) || perr.Source != SourceCamera {
		t.Fatalf("camera denied: got %v", err)
	}
	if err := s.SetImage(SourceGallery, img); err != nil {
		t.Fatal(err)
	}

	res, err := s.Analyze(context.Background())
	if err != nil || res.SuitabilityScore != 82 {
		t.Fatalf("analyze: %+v err=%v", res, err)
	}
	if st := s.Snapshot(); st.Phase != PhaseComplete || st.Result == nil {
		t.Fatalf("state: %+v", st)
	}

	// a new image clears the old result
	_ = s.SetImage(SourceGallery, img)
	if st := s.Snapshot(); st.Result != nil || st.Phase != PhaseReady {
		t.Fatalf("result should be cleared: %+v", st)
	}

	s.Discard()
	if st := s.Snapshot(); st.HasImage || st.Phase != PhaseSelectImage {
		t.Fatalf("discard: %+v", st)
	}
}

func TestSession_CloseCancelsAndDropsLateResult(t *testing.T) {
	img, _ := DecodeImage(pngPixel)
	v := &fakeVision{text: goodJSON, block: make(chan struct{})}
	s := New(v, nil, time.Minute).NewSession("s2", sofa(), Permissions{Camera: true, Gallery: true})
	_ = s.SetImage(SourceCamera, img)

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()

	// wait for the call to start
	deadline := time.Now().Add(2 * time.Second)
	for {
		v.mu.Lock()
		n := v.calls
		v.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Close()
	select {
	case err := <-done:
		if !errors.Is(err, ErrDiscarded) {
			t.Fatalf("want ErrDiscarded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the in-flight call")
	}
	if err := s.SetImage(SourceCamera, img); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("closed session accepted an image: %v", err)
	}
}
