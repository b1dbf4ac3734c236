// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcf

import (
	"strconv"
	"strings"
)

// ParseHeader parses the ##-prefixed meta lines and the single #CHROM
// column header line of a VCF stream, in the order they are provided.
func ParseHeader(lines []string) (*Header, error) {
	h := &Header{
		Info:   make(map[string]FieldInfo),
		Format: make(map[string]FieldInfo),
		Filter: make(map[string]string),
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "##fileformat="):
			h.FileFormat = strings.TrimPrefix(line, "##fileformat=")
		case strings.HasPrefix(line, "##contig="):
			c, err := parseContig(line)
			if err != nil {
				return nil, err
			}
			h.Contigs = append(h.Contigs, c)
		case strings.HasPrefix(line, "##INFO="):
			f, err := parseFieldInfo(strings.TrimPrefix(line, "##INFO="))
			if err != nil {
				return nil, err
			}
			h.Info[f.ID] = f
			h.infoOrder = append(h.infoOrder, f.ID)
		case strings.HasPrefix(line, "##FORMAT="):
			f, err := parseFieldInfo(strings.TrimPrefix(line, "##FORMAT="))
			if err != nil {
				return nil, err
			}
			h.Format[f.ID] = f
			h.formatOrder = append(h.formatOrder, f.ID)
		case strings.HasPrefix(line, "##FILTER="):
			id, desc, err := parseFilter(strings.TrimPrefix(line, "##FILTER="))
			if err != nil {
				return nil, err
			}
			h.Filter[id] = desc
		case strings.HasPrefix(line, "#CHROM"):
			fields := strings.Split(line, "\t")
			if len(fields) < 8 {
				return nil, errBadColumns
			}
			if len(fields) > 9 {
				h.Samples = append(h.Samples, fields[9:]...)
			}
		}
	}
	return h, nil
}

func parseContig(line string) (Contig, error) {
	body, ok := curlyBody(line)
	if !ok {
		return Contig{}, errBadHeaderLine
	}
	kv := splitStructured(body)
	c := Contig{}
	if v, ok := kv["ID"]; ok {
		c.ID = v
	}
	if v, ok := kv["length"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Contig{}, errBadHeaderLine
		}
		c.Length = n
	}
	if c.ID == "" {
		return Contig{}, errBadHeaderLine
	}
	return c, nil
}

func parseFilter(line string) (id, desc string, err error) {
	body, ok := curlyBody(line)
	if !ok {
		return "", "", errBadHeaderLine
	}
	kv := splitStructured(body)
	id, ok = kv["ID"]
	if !ok {
		return "", "", errBadHeaderLine
	}
	return id, kv["Description"], nil
}

func parseFieldInfo(line string) (FieldInfo, error) {
	body, ok := curlyBody(line)
	if !ok {
		return FieldInfo{}, errBadHeaderLine
	}
	kv := splitStructured(body)
	f := FieldInfo{}
	f.ID = kv["ID"]
	f.Description = kv["Description"]
	if f.ID == "" {
		return FieldInfo{}, errBadHeaderLine
	}
	switch kv["Number"] {
	case "A":
		f.Number = NumberPerAlt
	case "R":
		f.Number = NumberPerAllele
	case "G":
		f.Number = NumberPerGenotype
	case ".", "":
		f.Number = NumberUnknown
	default:
		n, err := strconv.Atoi(kv["Number"])
		if err != nil {
			return FieldInfo{}, errBadHeaderLine
		}
		f.Number = NumberFixed
		f.NumberCount = n
	}
	switch kv["Type"] {
	case "Integer":
		f.Type = TypeInteger
	case "Float":
		f.Type = TypeFloat
	case "Flag":
		f.Type = TypeFlag
	case "Character":
		f.Type = TypeCharacter
	case "String":
		f.Type = TypeString
	default:
		return FieldInfo{}, errBadHeaderLine
	}
	return f, nil
}

// curlyBody returns the contents between the first '<' and the last '>'
// in line.
func curlyBody(line string) (string, bool) {
	i := strings.IndexByte(line, '<')
	j := strings.LastIndexByte(line, '>')
	if i < 0 || j < 0 || j < i {
		return "", false
	}
	return line[i+1 : j], true
}

// splitStructured splits a VCF structured meta-line body (comma separated
// KEY=VALUE pairs, values optionally quoted and possibly containing commas
// inside quotes) into a map.
func splitStructured(body string) map[string]string {
	kv := make(map[string]string)
	var key, val strings.Builder
	inVal, inQuote := false, false
	flush := func() {
		if key.Len() == 0 {
			return
		}
		kv[key.String()] = strings.Trim(val.String(), `"`)
		key.Reset()
		val.Reset()
		inVal = false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			val.WriteByte(c)
		case c == '=' && !inVal && !inQuote:
			inVal = true
		case c == ',' && !inQuote:
			flush()
		case inVal:
			val.WriteByte(c)
		default:
			key.WriteByte(c)
		}
	}
	flush()
	return kv
}
