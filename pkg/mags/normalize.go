package mags

import (
	"regexp"
	"strings"
)

var (
	compressionSuffixes = []string{".gz", ".bz2", ".xz", ".zst"}
	fastaSuffixes       = []string{".fasta", ".fna", ".fas", ".ffn", ".fa"}

	accessionPattern = regexp.MustCompile(`GC[AF]_\d{9}\.\d+`)
)

// GenomeID canonicalises a genome identifier: the base name of a path with
// any compression suffix and then any FASTA suffix removed. Every join on a
// genome goes through this function.
func GenomeID(raw string) string {
	id := strings.TrimSpace(raw)
	if i := strings.LastIndexAny(id, `/\`); i >= 0 {
		id = id[i+1:]
	}
	id = trimFirstSuffix(id, compressionSuffixes)
	return trimFirstSuffix(id, fastaSuffixes)
}

func trimFirstSuffix(s string, suffixes []string) string {
	for _, suf := range suffixes {
		if len(s) > len(suf) && strings.HasSuffix(s, suf) {
			return s[:len(s)-len(suf)]
		}
	}
	return s
}

// ReferenceID canonicalises a reference genome identifier. NCBI assembly
// file names such as GCF_000005845.2_ASM584v2_genomic.fna.gz reduce to their
// accession; anything else falls back to GenomeID.
func ReferenceID(raw string) string {
	id := GenomeID(raw)
	if acc := accessionPattern.FindString(id); acc != "" {
		return acc
	}
	return strings.TrimSuffix(id, "_genomic")
}

// MetadataAccession strips the 3-character database prefix (RS_, GB_) from
// a reference metadata accession.
func MetadataAccession(raw string) string {
	acc := strings.TrimSpace(raw)
	if len(acc) > 3 && acc[2] == '_' {
		acc = acc[3:]
	}
	return ReferenceID(acc)
}

// Species returns the species label of a semicolon-delimited rank string
// and whether one is assigned. The label is the last rank with its "s__"
// prefix removed; a last rank that is not a species rank counts as
// unassigned.
func Species(classification string) (string, bool) {
	ranks := strings.Split(classification, ";")
	last := strings.TrimSpace(ranks[len(ranks)-1])
	if !strings.HasPrefix(last, "s__") {
		return "", false
	}
	label := strings.TrimSpace(strings.TrimPrefix(last, "s__"))
	return label, label != ""
}
