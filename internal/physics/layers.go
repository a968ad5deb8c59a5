package physics

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layer is a single collision layer index (0..31).
type Layer uint8

const (
	LayerDefault Layer = iota
	LayerGround
	LayerPlatform
	LayerWall
	LayerLadder
	LayerZone
	LayerPlayer
)

var layerNames = map[string]Layer{
	"default":  LayerDefault,
	"ground":   LayerGround,
	"platform": LayerPlatform,
	"wall":     LayerWall,
	"ladder":   LayerLadder,
	"zone":     LayerZone,
	"player":   LayerPlayer,
}

func (l Layer) Mask() LayerMask {
	return LayerMask(1) << l
}

func (l Layer) String() string {
	for name, layer := range layerNames {
		if layer == l {
			return name
		}
	}
	return "layer" + strconv.Itoa(int(l))
}

func ParseLayer(name string) (Layer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if l, ok := layerNames[name]; ok {
		return l, nil
	}
	if n, err := strconv.Atoi(name); err == nil && n >= 0 && n < 32 {
		return Layer(n), nil
	}
	return 0, fmt.Errorf("unknown layer %q", name)
}

func (l *Layer) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseLayer(raw)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LayerMask selects layers for queries. The zero mask matches nothing.
type LayerMask uint32

const AllLayers LayerMask = ^LayerMask(0)

func Mask(layers ...Layer) LayerMask {
	var m LayerMask
	for _, l := range layers {
		m |= l.Mask()
	}
	return m
}

func (m LayerMask) Contains(l Layer) bool {
	return m&l.Mask() != 0
}

func (m LayerMask) String() string {
	if m == AllLayers {
		return "all"
	}
	parts := make([]string, 0, bits.OnesCount32(uint32(m)))
	for i := 0; i < 32; i++ {
		if m.Contains(Layer(i)) {
			parts = append(parts, Layer(i).String())
		}
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// UnmarshalYAML accepts an integer bitmask, a single layer name, or a list of
// layer names.
func (m *LayerMask) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		var mask LayerMask
		for _, name := range names {
			l, err := ParseLayer(name)
			if err != nil {
				return err
			}
			mask |= l.Mask()
		}
		*m = mask
		return nil
	case yaml.ScalarNode:
		if v, err := strconv.ParseUint(node.Value, 0, 32); err == nil {
			*m = LayerMask(v)
			return nil
		}
		if strings.EqualFold(node.Value, "all") {
			*m = AllLayers
			return nil
		}
		l, err := ParseLayer(node.Value)
		if err != nil {
			return err
		}
		*m = l.Mask()
		return nil
	default:
		return fmt.Errorf("layer mask: unsupported yaml node kind %d", node.Kind)
	}
}
