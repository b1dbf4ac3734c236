// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"fmt"
	"io"
	"strings"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/bcf"
	"github.com/oxbow-project/oxbow/bgzf"
	"github.com/oxbow-project/oxbow/bgzf/index"
	"github.com/oxbow-project/oxbow/csi"
	"github.com/oxbow-project/oxbow/tabix"
	"github.com/oxbow-project/oxbow/vcf"
)

var vcfFixedColumns = []string{"chrom", "pos", "id", "ref", "alt", "qual", "filter"}

// genericRecord is the common shape both a text vcf.Record and a binary
// bcf.Record are normalized to before row construction, letting Next
// share one code path across both encodings.
type genericRecord struct {
	chrom         string
	pos           int // 0-based
	end           int
	id            []string
	ref           string
	alt           []string
	qual          float64
	qualOK        bool
	filter        []string
	filterMissing bool
	info          map[string]vcf.FieldValue
	samples       []map[string]vcf.FieldValue
}

// vcfSource implements Source over VCF text or BCF2 binary variant
// streams, sharing one row-building plan across both.
type vcfSource struct {
	binary     bool
	compressed bool

	text *vcf.Reader
	bin  *bcf.Reader

	textIt *vcf.Iterator
	binIt  *bcf.Iterator

	header *vcf.Header

	fixed      []string
	infoFields []string
	gtFields   []string
	samples    []string
	genotypeBy GenotypeBy

	emitGenotypes bool
}

// NewVCFSource returns a Source reading text VCF records.
func NewVCFSource() Source { return &vcfSource{} }

// NewBCFSource returns a Source reading binary BCF2 records.
func NewBCFSource() Source { return &vcfSource{binary: true} }

func (s *vcfSource) Fields(open SourceOpener, opts Options) ([]arrowschema.Field, error) {
	s.infoFields = opts.InfoFields
	s.gtFields = opts.GenotypeFields
	s.samples = opts.Samples
	s.genotypeBy = opts.GenotypeBy
	s.emitGenotypes = len(opts.Samples) > 0 && len(opts.GenotypeFields) > 0
	s.compressed = opts.Compressed

	names := opts.Fields
	if len(names) == 0 {
		names = append(append([]string{}, vcfFixedColumns...), "info", "genotypes")
	}
	needsHeader := false
	for _, n := range names {
		if n == "info" || n == "genotypes" {
			needsHeader = true
		}
	}
	if needsHeader && s.header == nil {
		if err := s.peekHeader(open); err != nil {
			return nil, err
		}
	}

	var fields []arrowschema.Field
	for _, n := range names {
		switch n {
		case "chrom", "ref":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString})
			s.fixed = append(s.fixed, n)
		case "pos":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindInt64})
			s.fixed = append(s.fixed, n)
		case "id", "alt", "filter":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString, List: true, Nullable: true})
			s.fixed = append(s.fixed, n)
		case "qual":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindFloat64, Nullable: true})
			s.fixed = append(s.fixed, n)
		case "info":
			fields = append(fields, s.infoSchemaFields()...)
		case "genotypes":
			if !s.emitGenotypes {
				continue
			}
			fields = append(fields, arrowschema.Field{
				Name:     "genotypes",
				Children: s.genotypeSchemaFields(),
				Nullable: true,
			})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, n)
		}
	}
	return fields, nil
}

func (s *vcfSource) infoSchemaFields() []arrowschema.Field {
	out := make([]arrowschema.Field, len(s.infoFields))
	for i, name := range s.infoFields {
		out[i] = arrowschema.Field{Name: name, Nullable: true, Kind: s.kindFor(s.header.Info, name), List: s.isList(s.header.Info, name)}
	}
	return out
}

func (s *vcfSource) genotypeSchemaFields() []arrowschema.Field {
	fieldDefs := make([]arrowschema.Field, len(s.gtFields))
	for i, name := range s.gtFields {
		fieldDefs[i] = arrowschema.Field{Name: name, Kind: s.kindFor(s.header.Format, name), List: s.isList(s.header.Format, name)}
	}
	if s.genotypeBy == GenotypeByField {
		return arrowschema.GenotypeByField(fieldDefs, s.samples)
	}
	return arrowschema.GenotypeBySample(s.samples, fieldDefs)
}

func (s *vcfSource) kindFor(decls map[string]vcf.FieldInfo, name string) arrowschema.Kind {
	decl, ok := decls[name]
	if !ok {
		return arrowschema.KindString
	}
	switch decl.Type {
	case vcf.TypeInteger:
		return arrowschema.KindInt64
	case vcf.TypeFloat:
		return arrowschema.KindFloat64
	case vcf.TypeFlag:
		return arrowschema.KindBool
	default:
		return arrowschema.KindString
	}
}

func (s *vcfSource) isList(decls map[string]vcf.FieldInfo, name string) bool {
	decl, ok := decls[name]
	if !ok {
		return false
	}
	return !(decl.Number == vcf.NumberFixed && decl.NumberCount == 1)
}

// peekHeader opens a throwaway stream purely to learn the VCF/BCF
// header's INFO and FORMAT declarations, needed to compute dynamic
// schema fields before the real decode stream is opened in Open.
func (s *vcfSource) peekHeader(open SourceOpener) error {
	stream, err := open()
	if err != nil {
		return err
	}
	if s.binary {
		r, err := bcf.NewReader(stream, 0)
		if err != nil {
			return err
		}
		s.header = r.Header().Text
		return nil
	}
	r, err := s.newTextReader(stream)
	if err != nil {
		return err
	}
	s.header = r.Header()
	return nil
}

// newTextReader constructs a vcf.Reader over stream, choosing the
// chunk-seekable BGZF-backed variant when the source is opened with
// Compressed set, matching how Resolve later restricts reads to
// tabix-derived chunks.
func (s *vcfSource) newTextReader(stream Stream) (*vcf.Reader, error) {
	if s.compressed {
		return vcf.NewBGZFReader(stream, 0)
	}
	return vcf.NewReader(stream)
}

func (s *vcfSource) Open(open SourceOpener, idx IndexOpener, opts Options) error {
	s.compressed = opts.Compressed
	stream, err := open()
	if err != nil {
		return err
	}
	if s.binary {
		r, err := bcf.NewReader(stream, 0)
		if err != nil {
			return err
		}
		s.bin = r
		s.header = r.Header().Text
		return nil
	}
	r, err := s.newTextReader(stream)
	if err != nil {
		return err
	}
	s.text = r
	s.header = r.Header()
	return nil
}

func (s *vcfSource) Next() ([]any, Coord, error) {
	var gr genericRecord
	if s.binary {
		var rec *bcf.Record
		if s.binIt != nil {
			if !s.binIt.Next() {
				if e := s.binIt.Error(); e != nil {
					return nil, Coord{}, e
				}
				return nil, Coord{}, io.EOF
			}
			rec = s.binIt.Record()
		} else {
			var err error
			rec, err = s.bin.Read()
			if err != nil {
				return nil, Coord{}, err
			}
		}
		gr = s.normalizeBCF(rec)
	} else {
		var rec *vcf.Record
		if s.textIt != nil {
			if !s.textIt.Next() {
				if e := s.textIt.Error(); e != nil {
					return nil, Coord{}, e
				}
				return nil, Coord{}, io.EOF
			}
			rec = s.textIt.Record()
		} else {
			var err error
			rec, err = s.text.Read()
			if err != nil {
				return nil, Coord{}, err
			}
		}
		gr = normalizeVCF(rec)
	}

	row := s.buildRow(gr)
	coord := Coord{Start: gr.pos, End: gr.end}
	return row, coord, nil
}

func normalizeVCF(r *vcf.Record) genericRecord {
	end := r.Pos
	if len(r.Ref) > 0 {
		end = r.Pos - 1 + len(r.Ref)
	}
	samples := make([]map[string]vcf.FieldValue, len(r.Samples))
	for i, sm := range r.Samples {
		samples[i] = sm.Fields
	}
	return genericRecord{
		chrom: r.Chrom, pos: r.Pos - 1, end: end,
		id: r.ID, ref: r.Ref, alt: r.Alt,
		qual: r.Qual, qualOK: r.QualOK,
		filter: r.Filter, filterMissing: r.FilterMissing,
		info: r.Info, samples: samples,
	}
}

func (s *vcfSource) normalizeBCF(r *bcf.Record) genericRecord {
	h := s.bin.Header()
	end := int(r.Pos) + int(r.RLen)
	filter := make([]string, 0, len(r.Filter))
	for _, idx := range r.Filter {
		filter = append(filter, h.IDFor(int(idx)))
	}
	info := make(map[string]vcf.FieldValue, len(r.Info))
	for _, f := range r.Info {
		info[h.IDFor(int(f.Key))] = bcfFieldValue(f.Value)
	}
	samples := make([]map[string]vcf.FieldValue, r.NSample)
	for i := range samples {
		samples[i] = make(map[string]vcf.FieldValue, len(r.Format))
	}
	for _, f := range r.Format {
		name := h.IDFor(int(f.Key))
		for i, v := range f.Values {
			if i < len(samples) {
				samples[i][name] = bcfFieldValue(v)
			}
		}
	}
	var id []string
	if r.ID != "" {
		id = strings.Split(r.ID, ";")
	}
	return genericRecord{
		chrom: chromName(h, r.ChromIdx), pos: int(r.Pos), end: end,
		id: id, ref: r.Ref, alt: r.Alt,
		qual: float64(r.Qual), qualOK: r.QualOK,
		filter: filter, filterMissing: len(filter) == 0,
		info: info, samples: samples,
	}
}

func chromName(h *bcf.Header, idx int32) string {
	if int(idx) < 0 || int(idx) >= len(h.Contigs) {
		return ""
	}
	return h.Contigs[idx]
}

// bcfFieldValue converts a decoded BCF typed vector into the shared
// vcf.FieldValue shape, inferring the scalar kind from which slice the
// decoder populated rather than re-deriving the VCF Number/Type pair.
func bcfFieldValue(v bcf.Value) vcf.FieldValue {
	switch {
	case len(v.Ints) > 0:
		return vcf.FieldValue{Type: vcf.TypeInteger, Ints: toInt64s(v.Ints)}
	case len(v.Floats) > 0:
		return vcf.FieldValue{Type: vcf.TypeFloat, Floats: toFloat64s(v.Floats)}
	case v.Strings != "":
		return vcf.FieldValue{Type: vcf.TypeString, Strings: strings.Split(v.Strings, ",")}
	default:
		return vcf.FieldValue{Type: vcf.TypeFlag, Flag: true}
	}
}

func toInt64s(xs []int32) []int64 {
	out := make([]int64, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

func toFloat64s(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func (s *vcfSource) buildRow(gr genericRecord) []any {
	var row []any
	for _, n := range s.fixed {
		row = append(row, fixedField(gr, n))
	}
	if len(s.infoFields) > 0 {
		for _, name := range s.infoFields {
			row = append(row, fieldValueToAny(gr.info[name]))
		}
	}
	if s.emitGenotypes {
		row = append(row, s.buildGenotypes(gr.samples))
	}
	return row
}

func fixedField(gr genericRecord, name string) any {
	switch name {
	case "chrom":
		return gr.chrom
	case "pos":
		return int64(gr.pos)
	case "id":
		if len(gr.id) == 0 {
			return nil
		}
		return stringsToAny(gr.id)
	case "ref":
		return gr.ref
	case "alt":
		if len(gr.alt) == 0 {
			return nil
		}
		return stringsToAny(gr.alt)
	case "qual":
		if !gr.qualOK {
			return nil
		}
		return gr.qual
	case "filter":
		if gr.filterMissing || len(gr.filter) == 0 {
			return nil
		}
		return stringsToAny(gr.filter)
	default:
		return nil
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func fieldValueToAny(fv vcf.FieldValue) any {
	switch fv.Type {
	case vcf.TypeFlag:
		return fv.Flag
	case vcf.TypeInteger:
		if len(fv.Ints) == 0 {
			return nil
		}
		if len(fv.Ints) == 1 {
			return fv.Ints[0]
		}
		out := make([]any, len(fv.Ints))
		for i, v := range fv.Ints {
			out[i] = v
		}
		return out
	case vcf.TypeFloat:
		if len(fv.Floats) == 0 {
			return nil
		}
		if len(fv.Floats) == 1 {
			return fv.Floats[0]
		}
		out := make([]any, len(fv.Floats))
		for i, v := range fv.Floats {
			out[i] = v
		}
		return out
	default:
		if len(fv.Strings) == 0 {
			return nil
		}
		if len(fv.Strings) == 1 {
			return fv.Strings[0]
		}
		return stringsToAny(fv.Strings)
	}
}

// buildGenotypes assembles the nested struct column for the requested
// genotype projection, transposing between per-sample and per-field
// nesting according to s.genotypeBy. Both orderings read from the same
// per-sample field maps, so the two projections carry identical data
// merely grouped along the opposite axis.
func (s *vcfSource) buildGenotypes(samples []map[string]vcf.FieldValue) []any {
	bySample := make([][]any, len(s.samples))
	for i := range s.samples {
		var fields map[string]vcf.FieldValue
		if i < len(samples) {
			fields = samples[i]
		}
		vals := make([]any, len(s.gtFields))
		for j, name := range s.gtFields {
			vals[j] = fieldValueToAny(fields[name])
		}
		bySample[i] = vals
	}
	if s.genotypeBy == GenotypeBySample {
		out := make([]any, len(bySample))
		for i, v := range bySample {
			out[i] = v
		}
		return out
	}
	out := make([]any, len(s.gtFields))
	for j := range s.gtFields {
		perField := make([]any, len(bySample))
		for i := range bySample {
			perField[i] = bySample[i][j]
		}
		out[j] = perField
	}
	return out
}

// Resolve drives a CSI-indexed (BCF) or tabix-indexed (compressed VCF
// text) region query, restricting subsequent Next calls to the chunks
// the index reports for region.
func (s *vcfSource) Resolve(region Region, idx IndexOpener) (bool, error) {
	if idx == nil {
		return false, ErrNotSeekable
	}
	if s.binary {
		return s.resolveBCF(region, idx)
	}
	return s.resolveVCF(region, idx)
}

func (s *vcfSource) resolveBCF(region Region, idx IndexOpener) (bool, error) {
	r, err := openBGZFIndex(idx)
	if err != nil {
		return false, err
	}
	ci, err := csi.ReadFrom(r)
	if err != nil {
		return false, err
	}
	rid := -1
	for i, name := range s.bin.Header().Contigs {
		if name == region.Chrom {
			rid = i
			break
		}
	}
	if rid == -1 {
		return false, nil
	}
	start, end := region.boundsOr(s.bin.Header().Text)
	chunks := ci.Chunks(rid, start, end)
	if len(chunks) == 0 {
		return false, nil
	}
	it, err := bcf.NewIterator(s.bin, chunks)
	if err != nil {
		return false, err
	}
	s.binIt = it
	return true, nil
}

func (s *vcfSource) resolveVCF(region Region, idx IndexOpener) (bool, error) {
	if !s.compressed {
		return false, ErrNotSeekable
	}
	r, err := openBGZFIndex(idx)
	if err != nil {
		return false, err
	}
	ti, err := tabix.ReadFrom(r)
	if err != nil {
		return false, err
	}
	start, end := region.boundsOr(s.header)
	chunks, err := ti.Chunks(region.Chrom, start, end)
	if err != nil {
		if err == index.ErrNoReference {
			return false, nil
		}
		return false, err
	}
	if len(chunks) == 0 {
		return false, nil
	}
	it, err := vcf.NewIterator(s.text, chunks)
	if err != nil {
		return false, err
	}
	s.textIt = it
	return true, nil
}

// openBGZFIndex opens idx and wraps it in a BGZF reader, since .csi and
// .tbi index files are themselves written BGZF-compressed.
func openBGZFIndex(idx IndexOpener) (*bgzf.Reader, error) {
	stream, err := idx()
	if err != nil {
		return nil, err
	}
	return bgzf.NewReader(stream, 0)
}

// boundsOr returns region's bounds, or the full span of its contig
// (from the header's ##contig length declaration) for an unbounded
// "chrom"-only region.
func (region Region) boundsOr(h *vcf.Header) (start, end int) {
	if region.Bounded {
		return region.Start, region.End
	}
	for _, c := range h.Contigs {
		if c.ID == region.Chrom {
			return 0, c.Length
		}
	}
	return 0, 1 << 31
}

func (s *vcfSource) ResolveUnmapped(idx IndexOpener) (bool, error) {
	return false, ErrUnsupported
}

func (s *vcfSource) Close() error {
	if s.textIt != nil {
		return s.textIt.Close()
	}
	if s.binIt != nil {
		return s.binIt.Close()
	}
	return nil
}

