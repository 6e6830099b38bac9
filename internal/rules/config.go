package rules

// RawRule is the on-disk YAML/JSON shape for one rule, supporting spec
// §4.3's two equivalent config forms. The "flat" form populates the *In
// leaf fields directly (codecs, containers, hdr_formats, …), which become
// an implicit And of *In leaves. The "advanced" form nests flat blocks
// under AnyOf (→ Or) and Not, for expressions the flat form can't reach.
type RawRule struct {
	Name     string            `yaml:"name" json:"name"`
	Priority int               `yaml:"priority" json:"priority"`
	Enabled  bool              `yaml:"enabled" json:"enabled"`
	Actions  []RawActionConfig `yaml:"actions" json:"actions"`

	FlatLeaves `yaml:",inline" json:",inline"`

	AnyOf []FlatLeaves `yaml:"any_of,omitempty" json:"any_of,omitempty"`
	Not   *FlatLeaves  `yaml:"not,omitempty" json:"not,omitempty"`
}

// FlatLeaves is one block of *In-style leaf criteria; a zero-value field
// (nil slice, zero struct) means "not constrained on this axis".
type FlatLeaves struct {
	Codecs        []string        `yaml:"codecs,omitempty" json:"codecs,omitempty"`
	Containers    []string        `yaml:"containers,omitempty" json:"containers,omitempty"`
	HdrFormats    []string        `yaml:"hdr_formats,omitempty" json:"hdr_formats,omitempty"`
	DvProfiles    []int           `yaml:"dv_profiles,omitempty" json:"dv_profiles,omitempty"`
	MinResolution *ResolutionSpec `yaml:"min_resolution,omitempty" json:"min_resolution,omitempty"`
	MaxResolution *ResolutionSpec `yaml:"max_resolution,omitempty" json:"max_resolution,omitempty"`
	AudioCodecs   []string        `yaml:"audio_codecs,omitempty" json:"audio_codecs,omitempty"`
	HasAtmos      *bool           `yaml:"has_atmos,omitempty" json:"has_atmos,omitempty"`
	MinBitDepth   int             `yaml:"min_bit_depth,omitempty" json:"min_bit_depth,omitempty"`
	FileExts      []string        `yaml:"file_exts,omitempty" json:"file_exts,omitempty"`
}

type ResolutionSpec struct {
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

// RawActionConfig is one on-disk entry of a RawRule's ordered action list.
type RawActionConfig struct {
	Name string         `yaml:"name" json:"name"`
	Args map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// leaves returns the FlatLeaves block as a slice of individual leaf Exprs
// (the implicit-And decomposition), in a fixed field order so output is
// deterministic across round-trips.
func (f FlatLeaves) leaves() []Expr {
	var out []Expr
	if len(f.Codecs) > 0 {
		out = append(out, CodecIn(f.Codecs))
	}
	if len(f.Containers) > 0 {
		out = append(out, ContainerIn(f.Containers))
	}
	if len(f.HdrFormats) > 0 {
		out = append(out, HdrIn(f.HdrFormats))
	}
	if len(f.DvProfiles) > 0 {
		out = append(out, DvProfileIn(f.DvProfiles))
	}
	if f.MinResolution != nil {
		out = append(out, MinResolution{W: f.MinResolution.W, H: f.MinResolution.H})
	}
	if f.MaxResolution != nil {
		out = append(out, MaxResolution{W: f.MaxResolution.W, H: f.MaxResolution.H})
	}
	if len(f.AudioCodecs) > 0 {
		out = append(out, AudioCodecIn(f.AudioCodecs))
	}
	if f.HasAtmos != nil {
		out = append(out, HasAtmos(*f.HasAtmos))
	}
	if f.MinBitDepth > 0 {
		out = append(out, MinBitDepth(f.MinBitDepth))
	}
	if len(f.FileExts) > 0 {
		out = append(out, FileExtIn(f.FileExts))
	}
	return out
}

func (f FlatLeaves) isEmpty() bool { return len(f.leaves()) == 0 }

// ToExpr builds the Expr tree for a RawRule: an implicit And of the
// top-level flat leaves, plus an Or of any_of blocks and a negated not
// block, all conjoined. A RawRule using only the flat form therefore
// produces `And(leaves...)`, or the leaf itself when there is only one.
func (r RawRule) ToExpr() Expr {
	var parts []Expr
	parts = append(parts, r.FlatLeaves.leaves()...)

	if len(r.AnyOf) > 0 {
		var alts []Expr
		for _, block := range r.AnyOf {
			alts = append(alts, And(block.leaves()))
		}
		parts = append(parts, Or(alts))
	}
	if r.Not != nil {
		parts = append(parts, Not{Expr: And(r.Not.leaves())})
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return And(parts)
}

// ToRule converts a RawRule to a Rule ready for FirstMatch/AllMatches.
func (r RawRule) ToRule() Rule {
	actions := make([]ActionConfig, 0, len(r.Actions))
	for _, a := range r.Actions {
		actions = append(actions, ActionConfig{Name: a.Name, Args: a.Args})
	}
	return Rule{
		Name:     r.Name,
		Priority: r.Priority,
		Enabled:  r.Enabled,
		Expr:     r.ToExpr(),
		Actions:  actions,
	}
}

// FromFlatOnly reconstructs a RawRule from a Rule built purely from an And
// of *In-style leaves (the lossless advanced→flat direction spec §4.3
// describes as "attempted only when the tree is a single And of *In
// leaves"). ok is false when the tree isn't in that shape, in which case
// the caller must fall back to the advanced form.
func FromFlatOnly(r Rule) (RawRule, bool) {
	and, isAnd := r.Expr.(And)
	var leafExprs []Expr
	if isAnd {
		leafExprs = and
	} else {
		leafExprs = []Expr{r.Expr}
	}

	actions := make([]RawActionConfig, 0, len(r.Actions))
	for _, a := range r.Actions {
		actions = append(actions, RawActionConfig{Name: a.Name, Args: a.Args})
	}
	raw := RawRule{Name: r.Name, Priority: r.Priority, Enabled: r.Enabled, Actions: actions}
	for _, leaf := range leafExprs {
		switch l := leaf.(type) {
		case CodecIn:
			raw.Codecs = append(raw.Codecs, l...)
		case ContainerIn:
			raw.Containers = append(raw.Containers, l...)
		case HdrIn:
			raw.HdrFormats = append(raw.HdrFormats, l...)
		case DvProfileIn:
			raw.DvProfiles = append(raw.DvProfiles, l...)
		case MinResolution:
			raw.MinResolution = &ResolutionSpec{W: l.W, H: l.H}
		case MaxResolution:
			raw.MaxResolution = &ResolutionSpec{W: l.W, H: l.H}
		case AudioCodecIn:
			raw.AudioCodecs = append(raw.AudioCodecs, l...)
		case HasAtmos:
			b := bool(l)
			raw.HasAtmos = &b
		case MinBitDepth:
			raw.MinBitDepth = int(l)
		case FileExtIn:
			raw.FileExts = append(raw.FileExts, l...)
		default:
			return RawRule{}, false // Or/Not/unknown leaf: not flat-representable
		}
	}
	return raw, true
}
