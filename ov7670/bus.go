// Package ov7670 drives the parallel output bus of an OV7670 camera sensor.
package ov7670

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sarchlab/hwverify/sim"
)

// Ports are the pins the sensor drives and the reset it observes.
type Ports struct {
	PClk  *sim.Signal
	Reset *sim.Signal
	Data  *sim.Signal
	VSync *sim.Signal
	HRef  *sim.Signal
}

// Timing describes the frame geometry in pixels and lines.
type Timing struct {
	FrameWidth  int
	FrameHeight int
	VSyncWidth  int
	VFrontPorch int
	VBackPorch  int
	HRefBlank   int
}

// VGA is the datasheet timing of a 640x480 frame.
var VGA = Timing{
	FrameWidth:  640,
	FrameHeight: 480,
	VSyncWidth:  3,
	VFrontPorch: 17,
	VBackPorch:  10,
	HRefBlank:   144,
}

// TotalLines returns the number of lines in one frame period.
func (t Timing) TotalLines() int {
	return t.VSyncWidth + t.VFrontPorch + t.FrameHeight + t.VBackPorch
}

// Config configures a Bus.
type Config struct {
	Name    string
	Ports   Ports
	Timing  Timing
	Pattern string

	// Depths are the bit depths of the red, green and blue planes.
	Depths [3]int

	// Format must be RGB565.
	Format string

	Rng *rand.Rand
}

// FormatRGB565 is the only supported output format.
const FormatRGB565 = "RGB565"

// A Bus sends a test frame over and over, one byte per pixel clock.
type Bus struct {
	sim.Lifecycle

	kernel *sim.Kernel
	ports  Ports
	timing Timing
	frame  *Frame
	task   *sim.Task

	vCnt, hCnt int
	data       uint8
	secondByte bool
}

// NewBus creates a bus and generates its test frame.
func NewBus(k *sim.Kernel, cfg Config) (*Bus, error) {
	if cfg.Format != "" && cfg.Format != FormatRGB565 {
		return nil, errors.Errorf(
			"%s: only %s output format is supported", cfg.Name, FormatRGB565)
	}

	depths := cfg.Depths
	if depths == [3]int{} {
		depths = [3]int{5, 6, 5}
	}

	frame, err := NewFrame(cfg.Pattern,
		cfg.Timing.FrameWidth, cfg.Timing.FrameHeight, depths, cfg.Rng)
	if err != nil {
		return nil, errors.Wrap(err, cfg.Name)
	}

	return &Bus{
		Lifecycle: sim.MakeLifecycle(cfg.Name),
		kernel:    k,
		ports:     cfg.Ports,
		timing:    cfg.Timing,
		frame:     frame,
	}, nil
}

// Frame returns the test frame.
func (b *Bus) Frame() *Frame {
	return b.frame
}

// Start drives all outputs low and starts sending at the next pixel clock.
func (b *Bus) Start() error {
	if err := b.BeginStart(); err != nil {
		return err
	}

	b.restart()
	b.ports.HRef.Set(0)
	b.ports.Data.Set(0)
	b.ports.VSync.Set(0)

	b.task = b.kernel.Spawn(b.Name(), sim.ProcessFunc(b.step))

	return nil
}

// Stop kills the bus. The outputs keep their last values.
func (b *Bus) Stop() error {
	if err := b.BeginStop(); err != nil {
		return err
	}

	b.task.Kill()
	b.task = nil

	return nil
}

func (b *Bus) restart() {
	b.vCnt, b.hCnt = 0, 0
	b.data = 0
	b.secondByte = false
}

func (b *Bus) step(fired sim.Trigger) sim.Trigger {
	if fired == nil {
		return sim.RisingEdge(b.ports.PClk)
	}

	if b.ports.Reset.IsHigh() {
		b.restart()
		return sim.RisingEdge(b.ports.PClk)
	}

	t := b.timing
	firstLine := t.VSyncWidth + t.VFrontPorch
	vsync := b.vCnt < t.VSyncWidth
	href := b.vCnt >= firstLine &&
		b.vCnt < firstLine+t.FrameHeight &&
		b.hCnt < t.FrameWidth

	if href {
		first, second := RGB565(b.frame.Pixel(b.hCnt, b.vCnt-firstLine))
		b.data = first
		if b.secondByte {
			b.data = second
		}
	}

	b.ports.HRef.SetBool(href)
	b.ports.Data.Set(uint64(b.data))
	b.ports.VSync.SetBool(vsync)

	b.advance()

	return sim.RisingEdge(b.ports.PClk)
}

func (b *Bus) advance() {
	if b.secondByte {
		if b.hCnt == b.timing.FrameWidth+b.timing.HRefBlank-1 {
			b.hCnt = 0
			if b.vCnt == b.timing.TotalLines()-1 {
				b.vCnt = 0
			} else {
				b.vCnt++
			}
		} else {
			b.hCnt++
		}
	}

	b.secondByte = !b.secondByte
}
