package mock

import (
	"context"
	"math"
	"sync"

	"github.com/saturnino-fabrica-de-software/neotriage/internal/domain"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/imaging"
	"github.com/saturnino-fabrica-de-software/neotriage/internal/provider"
)

// Script decide o resultado de cada chamada a Detect
type Script func(frame *imaging.Frame) (*provider.Detection, error)

// Provider implementa provider.FaceDetector para testes e desenvolvimento
type Provider struct {
	name   string
	kind   provider.Kind
	script Script

	mu    sync.Mutex
	calls int
}

type Option func(*Provider)

// WithScript substitui a heurística padrão
func WithScript(s Script) Option {
	return func(p *Provider) { p.script = s }
}

func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

// New cria uma nova instância do MockProvider
func New(kind provider.Kind, opts ...Option) *Provider {
	p := &Provider{
		name: "mock-" + string(kind),
		kind: kind,
	}
	p.script = p.heuristic
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Kind() provider.Kind { return p.kind }

func (p *Provider) Detect(ctx context.Context, frame *imaging.Frame) (*provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.script(frame)
}

// Calls retorna quantas vezes Detect foi chamado
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Fixed devolve sempre a mesma detecção
func Fixed(det *provider.Detection) Script {
	return func(*imaging.Frame) (*provider.Detection, error) {
		c := *det
		return &c, nil
	}
}

// Failing devolve sempre o erro informado
func Failing(err error) Script {
	return func(*imaging.Frame) (*provider.Detection, error) {
		return nil, err
	}
}

// Sequence devolve as detecções em ordem e repete a última
func Sequence(dets ...*provider.Detection) Script {
	var (
		mu sync.Mutex
		i  int
	)
	return func(*imaging.Frame) (*provider.Detection, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(dets) == 0 {
			return provider.NotFound(), nil
		}
		d := dets[min(i, len(dets)-1)]
		i++
		c := *d
		return &c, nil
	}
}

// heuristic olha o terço central do frame: textura suficiente com
// exposição razoável conta como face. Determinístico por construção.
func (p *Provider) heuristic(frame *imaging.Frame) (*provider.Detection, error) {
	if frame == nil || frame.Width < 3 || frame.Height < 3 {
		return provider.NotFound(), nil
	}

	x0, y0 := frame.Width/3, frame.Height/3
	w, h := frame.Width/3, frame.Height/3

	var sum, sq float64
	for y := y0; y < y0+h; y++ {
		row := frame.Gray[y*frame.Width+x0 : y*frame.Width+x0+w]
		for _, v := range row {
			f := float64(v)
			sum += f
			sq += f * f
		}
	}
	n := float64(w * h)
	mean := sum / n
	std := math.Sqrt(math.Max(0, sq/n-mean*mean))

	if mean < 30 || mean > 235 || std < 8 {
		return provider.NotFound(), nil
	}

	det := &provider.Detection{
		Found:       true,
		NumFaces:    1,
		BoundingBox: &domain.BoundingBox{X: x0, Y: y0, Width: w, Height: h},
	}
	if p.kind == provider.KindPrimary {
		det.Confidence = math.Min(0.99, 0.5+std/100)
		visible := 3
		if std >= 20 {
			visible = 5
		}
		det.Landmarks = &provider.LandmarkSet{Visible: visible, Expected: 5}
	}
	return det, nil
}
