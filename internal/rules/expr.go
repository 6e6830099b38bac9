// Package rules implements the Rule Engine (C3): a boolean expression tree
// evaluated against a probed MediaInfo, deterministic rule selection, and a
// flat/advanced config form with lossless round-tripping.
package rules

import "github.com/sceneforged/sceneforged/internal/probe"

// Expr is a node in the boolean expression tree (spec §4.3). Leaves
// implement Eval directly against MediaInfo; And/Or/Not combine sub-exprs.
type Expr interface {
	Eval(info *probe.MediaInfo) bool
}

// --- Nodes ---

type And []Expr

func (a And) Eval(info *probe.MediaInfo) bool {
	for _, e := range a {
		if !e.Eval(info) {
			return false
		}
	}
	return true
}

type Or []Expr

func (o Or) Eval(info *probe.MediaInfo) bool {
	for _, e := range o {
		if e.Eval(info) {
			return true
		}
	}
	return false
}

// Not is syntactic negation only, per spec §4.3 — it does not short-circuit
// anything, it simply inverts its child's result.
type Not struct{ Expr Expr }

func (n Not) Eval(info *probe.MediaInfo) bool { return !n.Expr.Eval(info) }

// --- Leaves ---

// CodecIn matches the primary video track's codec against a set.
type CodecIn []string

func (c CodecIn) Eval(info *probe.MediaInfo) bool {
	v := info.PrimaryVideo()
	return v != nil && contains(c, v.Codec)
}

// ContainerIn matches the container against a set.
type ContainerIn []string

func (c ContainerIn) Eval(info *probe.MediaInfo) bool {
	return contains(c, string(info.Container))
}

// HdrIn matches the primary video track's HDR format against a set.
type HdrIn []string

func (h HdrIn) Eval(info *probe.MediaInfo) bool {
	v := info.PrimaryVideo()
	return v != nil && contains(h, string(v.HDRFormat))
}

// DvProfileIn matches the primary video track's Dolby Vision profile
// against a set of profile numbers; false if the track has no DV info.
type DvProfileIn []int

func (d DvProfileIn) Eval(info *probe.MediaInfo) bool {
	v := info.PrimaryVideo()
	if v == nil || v.DVInfo == nil {
		return false
	}
	for _, p := range d {
		if p == v.DVInfo.Profile {
			return true
		}
	}
	return false
}

// MinResolution matches when the primary video track is at least WxH.
type MinResolution struct{ W, H int }

func (m MinResolution) Eval(info *probe.MediaInfo) bool {
	v := info.PrimaryVideo()
	return v != nil && v.Width >= m.W && v.Height >= m.H
}

// MaxResolution matches when the primary video track is at most WxH.
type MaxResolution struct{ W, H int }

func (m MaxResolution) Eval(info *probe.MediaInfo) bool {
	v := info.PrimaryVideo()
	return v != nil && v.Width <= m.W && v.Height <= m.H
}

// AudioCodecIn matches the primary audio track's codec against a set.
type AudioCodecIn []string

func (a AudioCodecIn) Eval(info *probe.MediaInfo) bool {
	t := info.PrimaryAudio()
	return t != nil && contains(a, t.Codec)
}

// HasAtmos matches the primary audio track's Atmos flag against want.
type HasAtmos bool

func (h HasAtmos) Eval(info *probe.MediaInfo) bool {
	t := info.PrimaryAudio()
	return t != nil && t.HasAtmos == bool(h)
}

// MinBitDepth matches when the primary video track's bit depth is >= n.
type MinBitDepth int

func (m MinBitDepth) Eval(info *probe.MediaInfo) bool {
	v := info.PrimaryVideo()
	return v != nil && v.BitDepth >= int(m)
}

// FileExtIn matches the source path's extension against a set (case
// insensitive, leading-dot optional in the set).
type FileExtIn []string

func (f FileExtIn) Eval(info *probe.MediaInfo) bool {
	ext := extOf(info.Path)
	return contains(f, ext)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if normalizeToken(s) == normalizeToken(v) {
			return true
		}
	}
	return false
}
