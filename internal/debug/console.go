package debug

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/ledge/internal/controller"
	"github.com/Versifine/ledge/internal/event"
	"github.com/Versifine/ledge/internal/physics"
	"github.com/Versifine/ledge/internal/store"
	"golang.org/x/term"
)

const (
	defaultRenderInterval = 100 * time.Millisecond
	defaultMovePulse      = 180 * time.Millisecond
	defaultJumpPulse      = 250 * time.Millisecond
	captureWait           = time.Second
)

// Target is the controller surface the commands drive. Its methods are only
// called from functions handed to Poster.
type Target interface {
	State() controller.ControllerState
	Active() bool
	RepositionImmediately(pos physics.Vec2, resetVelocity bool)
	LoadState(state controller.ControllerState)
	TogglePlayer(on bool)
}

// Poster runs fn on the simulation goroutine; sim.Scheduler satisfies it.
type Poster interface {
	Post(fn func()) bool
}

type SlotStore interface {
	Save(ctx context.Context, slot string, state controller.ControllerState) error
	Load(ctx context.Context, slot string) (controller.ControllerState, error)
	Slots(ctx context.Context) ([]store.Slot, error)
}

// Console turns raw keyboard bytes into controller input and runs ':'
// commands. It is the controller's InputSource.
type Console struct {
	target       Target
	poster       Poster
	slots        SlotStore
	in           io.Reader
	out          io.Writer
	now          func() time.Time
	renderEvery  time.Duration
	movePulse    time.Duration
	jumpPulse    time.Duration
	ctx          context.Context
	outMu        sync.Mutex
	mu           sync.Mutex
	move         physics.Vec2
	xUntil       time.Time
	yUntil       time.Time
	jumpDown     bool
	jumpUntil    time.Time
	jumpLatched  bool
	ladderHeld   bool
	dashDown     bool
	commandMode  bool
	commandBuf   []rune
	statusWidth  int
	last         event.StateEvent
	haveState    bool
	lastEvent    string
	lastEventDue time.Time
}

func NewConsole(target Target, poster Poster, slots SlotStore) *Console {
	return &Console{
		target:      target,
		poster:      poster,
		slots:       slots,
		in:          os.Stdin,
		out:         os.Stdout,
		now:         time.Now,
		renderEvery: defaultRenderInterval,
		movePulse:   defaultMovePulse,
		jumpPulse:   defaultJumpPulse,
		ctx:         context.Background(),
	}
}

// Observe keeps the status line fed from controller events.
func (c *Console) Observe(bus *event.Bus) {
	bus.SubscribeMany(event.ControllerEvents, func(name string, evt any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if st, ok := evt.(event.StateEvent); ok {
			c.last = st
			c.haveState = true
			return
		}
		c.lastEvent = strings.TrimPrefix(name, "controller.")
		c.lastEventDue = c.now().Add(time.Second)
	})
}

// Start puts the terminal in raw mode and reads keys until ctx is done.
func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return errors.New("console is nil")
	}
	if c.target == nil || c.poster == nil {
		return errors.New("console needs a target and a poster")
	}

	f, ok := c.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return errors.New("console input is not a terminal")
	}
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		c.printf("\r\n")
	}()

	c.ctx = ctx
	c.printf("[debug] console started (A/D/W/S pulse, Space jump, K dash, J hold jump, L ladder, X clear, : commands)\r\n")
	c.renderStatusLine()

	go c.renderLoop(ctx)

	bytesCh := make(chan byte)
	errCh := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(c.in)
		for {
			b, err := reader.ReadByte()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case bytesCh <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	var pending []byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		case b := <-bytesCh:
			pending = c.feed(append(pending, b))
		}
	}
}

func (c *Console) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(c.renderEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.renderStatusLine()
		}
	}
}

// feed consumes complete key sequences from buf and returns the incomplete
// tail, so an arrow escape split across reads is not lost.
func (c *Console) feed(buf []byte) []byte {
	for len(buf) > 0 {
		if buf[0] == 27 && !c.isCommandMode() {
			if len(buf) < 3 {
				if len(buf) == 2 && buf[1] != '[' {
					buf = buf[2:]
					continue
				}
				return buf
			}
			if buf[1] == '[' {
				c.handleArrow(buf[2])
			}
			buf = buf[3:]
			continue
		}
		c.handleKey(buf[0])
		buf = buf[1:]
	}
	return buf[:0]
}

func (c *Console) handleArrow(b byte) {
	switch b {
	case 'D':
		c.pulseX(-1)
	case 'C':
		c.pulseX(1)
	case 'A':
		c.pulseY(1)
	case 'B':
		c.pulseY(-1)
	}
}

func (c *Console) handleKey(b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'a', 'A':
		c.pulseX(-1)
	case 'd', 'D':
		c.pulseX(1)
	case 'w', 'W':
		c.pulseY(1)
	case 's', 'S':
		c.pulseY(-1)
	case ' ':
		c.mu.Lock()
		c.jumpDown = true
		c.jumpUntil = c.now().Add(c.jumpPulse)
		c.mu.Unlock()
	case 'j', 'J':
		c.mu.Lock()
		c.jumpLatched = !c.jumpLatched
		c.mu.Unlock()
	case 'l', 'L':
		c.mu.Lock()
		c.ladderHeld = !c.ladderHeld
		c.mu.Unlock()
	case 'k', 'K':
		c.mu.Lock()
		c.dashDown = true
		c.mu.Unlock()
	case 'x', 'X':
		c.clearInput()
	}
}

func (c *Console) pulseX(dir float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.move.X = dir
	c.xUntil = c.now().Add(c.movePulse)
}

func (c *Console) pulseY(dir float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.move.Y = dir
	c.yUntil = c.now().Add(c.movePulse)
}

func (c *Console) clearInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.move = physics.Zero
	c.xUntil = time.Time{}
	c.yUntil = time.Time{}
	c.jumpDown = false
	c.jumpUntil = time.Time{}
	c.jumpLatched = false
	c.ladderHeld = false
	c.dashDown = false
}

// Gather samples the keyboard state. Jump and dash presses are reported once.
func (c *Console) Gather() controller.FrameInput {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.xUntil.IsZero() && !now.Before(c.xUntil) {
		c.move.X = 0
		c.xUntil = time.Time{}
	}
	if !c.yUntil.IsZero() && !now.Before(c.yUntil) {
		c.move.Y = 0
		c.yUntil = time.Time{}
	}

	in := controller.FrameInput{
		Move:       c.move,
		JumpDown:   c.jumpDown,
		JumpHeld:   c.jumpLatched || now.Before(c.jumpUntil),
		DashDown:   c.dashDown,
		LadderHeld: c.ladderHeld,
	}
	c.jumpDown = false
	c.dashDown = false
	return in
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	c.printf("\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		c.printf("\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
	case 27: // ESC
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		c.printf("\r\n[debug] command cancelled\r\n")
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s \r:%s", buf, buf)
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		c.printf("\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		c.printState()
	case "tp":
		if len(parts) != 3 {
			c.printf("[debug] usage: :tp <x> <y>\r\n")
			return
		}
		x, err1 := strconv.ParseFloat(parts[1], 64)
		y, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil {
			c.printf("[debug] invalid tp args\r\n")
			return
		}
		pos := physics.V(x, y)
		if !c.poster.Post(func() { c.target.RepositionImmediately(pos, true) }) {
			c.printf("[debug] simulation is not running\r\n")
			return
		}
		c.printf("[debug] teleport to (%.3f, %.3f)\r\n", x, y)
	case "toggle":
		if !c.poster.Post(func() { c.target.TogglePlayer(!c.target.Active()) }) {
			c.printf("[debug] simulation is not running\r\n")
			return
		}
		c.printf("[debug] toggled player\r\n")
	case "save":
		c.save(parts)
	case "load":
		c.load(parts)
	case "slots":
		c.listSlots()
	default:
		c.printf("[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) save(parts []string) {
	if len(parts) != 2 {
		c.printf("[debug] usage: :save <slot>\r\n")
		return
	}
	if c.slots == nil {
		c.printf("[debug] no save store configured\r\n")
		return
	}
	state, ok := c.capture()
	if !ok {
		c.printf("[debug] could not capture state\r\n")
		return
	}
	if err := c.slots.Save(c.ctx, parts[1], state); err != nil {
		c.printf("[debug] save failed: %v\r\n", err)
		return
	}
	c.printf("[debug] saved %q at (%.3f, %.3f)\r\n", parts[1], state.Position.X, state.Position.Y)
}

func (c *Console) load(parts []string) {
	if len(parts) != 2 {
		c.printf("[debug] usage: :load <slot>\r\n")
		return
	}
	if c.slots == nil {
		c.printf("[debug] no save store configured\r\n")
		return
	}
	state, err := c.slots.Load(c.ctx, parts[1])
	if errors.Is(err, store.ErrNotFound) {
		c.printf("[debug] slot %q is empty\r\n", parts[1])
		return
	}
	if err != nil {
		c.printf("[debug] load failed: %v\r\n", err)
		return
	}
	if !c.poster.Post(func() { c.target.LoadState(state) }) {
		c.printf("[debug] simulation is not running\r\n")
		return
	}
	c.printf("[debug] loaded %q\r\n", parts[1])
}

func (c *Console) listSlots() {
	if c.slots == nil {
		c.printf("[debug] no save store configured\r\n")
		return
	}
	slots, err := c.slots.Slots(c.ctx)
	if err != nil {
		c.printf("[debug] list failed: %v\r\n", err)
		return
	}
	if len(slots) == 0 {
		c.printf("[debug] no saved slots\r\n")
		return
	}
	for _, s := range slots {
		c.printf("  %s  %s\r\n", s.Name, s.SavedAt.Local().Format(time.DateTime))
	}
}

// capture reads the controller state on the simulation goroutine.
func (c *Console) capture() (controller.ControllerState, bool) {
	ch := make(chan controller.ControllerState, 1)
	if !c.poster.Post(func() { ch <- c.target.State() }) {
		return controller.ControllerState{}, false
	}
	select {
	case st := <-ch:
		return st, true
	case <-time.After(captureWait):
		return controller.ControllerState{}, false
	}
}

func (c *Console) printState() {
	c.mu.Lock()
	st, ok := c.last, c.haveState
	c.mu.Unlock()
	if !ok {
		c.printf("[debug] no state yet\r\n")
		return
	}
	c.printf("[debug] tick=%d pos=(%.3f,%.3f) vel=(%.3f,%.3f) rot=%.1f ground=%t\r\n",
		st.Tick,
		st.State.Position.X, st.State.Position.Y,
		st.State.Velocity.X, st.State.Velocity.Y,
		st.State.Rotation,
		st.State.Grounded,
	)
}

func (c *Console) printHelp() {
	c.printf("[debug] keys:\r\n")
	c.printf("  A/D or Left/Right: pulse horizontal (~180ms)\r\n")
	c.printf("  W/S or Up/Down: pulse vertical (ladders, crouch)\r\n")
	c.printf("  Space: jump (held ~250ms)\r\n")
	c.printf("  J: toggle jump held\r\n")
	c.printf("  L: toggle ladder held\r\n")
	c.printf("  K: dash\r\n")
	c.printf("  X: clear all input\r\n")
	c.printf("  : enter command mode\r\n")
	c.printf("[debug] commands:\r\n")
	c.printf("  :state\r\n")
	c.printf("  :tp <x> <y>\r\n")
	c.printf("  :save <slot>\r\n")
	c.printf("  :load <slot>\r\n")
	c.printf("  :slots\r\n")
	c.printf("  :toggle\r\n")
	c.printf("  :help\r\n")
}

func (c *Console) statusLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.last.State
	evt := ""
	if c.lastEvent != "" && c.now().Before(c.lastEventDue) {
		evt = " | " + c.lastEvent
	}
	return fmt.Sprintf(
		"[MOVE:%+.0f,%+.0f JMP:%s LAD:%s | X:%.2f Y:%.2f VX:%.2f VY:%.2f ground:%t%s]",
		c.move.X,
		c.move.Y,
		boolLabel(c.jumpLatched || c.now().Before(c.jumpUntil)),
		boolLabel(c.ladderHeld),
		st.Position.X,
		st.Position.Y,
		st.Velocity.X,
		st.Velocity.Y,
		st.Grounded,
		evt,
	)
}

func (c *Console) renderStatusLine() {
	if c.isCommandMode() {
		return
	}
	line := c.statusLine()

	c.mu.Lock()
	padding := ""
	if c.statusWidth > len(line) {
		padding = strings.Repeat(" ", c.statusWidth-len(line))
	}
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()

	c.printf("\r%s%s", line, padding)
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
