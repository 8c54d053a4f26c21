package deb

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ChangeSet is one release entry of the changelog.
type ChangeSet struct {
	Package      string
	Version      string
	Distribution string
	Urgency      string
	ChangedBy    string
	Changes      []string
}

// ChangesProvider supplies the change sets announced by a .changes document.
type ChangesProvider interface {
	ChangeSets() ([]ChangeSet, error)
}

// StaticChanges is a ChangesProvider returning a fixed list.
type StaticChanges []ChangeSet

// ChangeSets implements ChangesProvider.
func (s StaticChanges) ChangeSets() ([]ChangeSet, error) { return s, nil }

// NewChangesDescriptor builds the .changes descriptor of a built package.
// pkg must carry the fields set by [Processor.CreateDeb].
func NewChangesDescriptor(pkg *Descriptor, changeSets []ChangeSet) *Descriptor {
	c := NewDescriptor()
	c.Set(FieldFormat, changesFormat)

	name := pkg.Value(FieldPackage)
	version := pkg.Value(FieldVersion)

	for _, f := range []Field{FieldDate, FieldSource, FieldBinary, FieldArchitecture, FieldVersion, FieldDistribution, FieldUrgency, FieldMaintainer, FieldChangedBy, FieldDescription} {
		v, ok := pkg.Get(f)
		if !ok {
			switch f {
			case FieldSource, FieldBinary:
				v, ok = name, true
			case FieldDescription:
				v, ok = "update to "+version, true
			case FieldChangedBy:
				// The most recent change set comes first.
				if len(changeSets) > 0 && changeSets[0].ChangedBy != "" {
					v, ok = changeSets[0].ChangedBy, true
				}
			}
		}
		if ok {
			c.Set(f, v)
		}
	}

	if len(changeSets) > 0 {
		c.Set(FieldChanges, formatChangeSets(changeSets))
	}

	size := pkg.Value(FieldSize)
	file := pkg.Value(FieldFile)
	// Checksums-Sha1:
	//  56ef4c6249dc3567fd2967f809c42d1f9b61adf7 45964 hello_1.0_all.deb
	c.Set(FieldChecksumsSha1, fmt.Sprintf("\n %s %s %s", pkg.Value(FieldSHA1), size, file))
	c.Set(FieldChecksumsSha256, fmt.Sprintf("\n %s %s %s", pkg.Value(FieldSHA256), size, file))
	c.Set(FieldFiles, fmt.Sprintf("\n %s %s %s %s %s", pkg.Value(FieldMD5), size, pkg.Value(FieldSection), pkg.Value(FieldPriority), file))
	return c
}

// formatChangeSets renders change sets as the value of the Changes field.
func formatChangeSets(sets []ChangeSet) string {
	var b strings.Builder
	for i, s := range sets {
		if i > 0 {
			b.WriteString("\n .")
		}
		urgency := s.Urgency
		if urgency == "" {
			urgency = "low"
		}
		distribution := s.Distribution
		if distribution == "" {
			distribution = "unknown"
		}
		fmt.Fprintf(&b, "\n %s (%s) %s; urgency=%s", s.Package, s.Version, distribution, urgency)
		b.WriteString("\n .")
		for _, change := range s.Changes {
			fmt.Fprintf(&b, "\n   * %s", change)
		}
	}
	return b.String()
}

// CreateChanges writes the .changes document of a built package to out and
// returns its descriptor. When creds are complete the document is
// clear-signed with the Processor's Signer.
//
// A signing failure is only logged: the unsigned document is written
// instead. out is closed in every case.
func (p *Processor) CreateChanges(pkg *Descriptor, provider ChangesProvider, creds Credentials, out io.WriteCloser) (d *Descriptor, err error) {
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			d = nil
			err = &PackagingError{Msg: "could not write changes", Err: cerr}
		}
	}()

	var sets []ChangeSet
	if provider != nil {
		if sets, err = provider.ChangeSets(); err != nil {
			return nil, &PackagingError{Msg: "could not read change sets", Err: err}
		}
	}

	changes := NewChangesDescriptor(pkg, sets)
	if err := changes.validate(requiredChangesFields); err != nil {
		return nil, err
	}
	raw := []byte(changes.String())

	if !creds.complete() {
		if _, err := out.Write(raw); err != nil {
			return nil, &PackagingError{Msg: "could not write changes", Err: err}
		}
		return changes, nil
	}

	p.logger().Info("signing changes", "key", creds.KeyID)
	signer := p.Signer
	if signer == nil {
		signer = OpenPGPSigner{}
	}
	var signed bytes.Buffer
	if err := signer.ClearSign(bytes.NewReader(raw), creds, &signed); err != nil {
		// The unsigned document is still written, callers relying on a
		// signature must check the output.
		p.logger().Warn("could not sign changes, writing them unsigned", "key", creds.KeyID, "err", err)
		signed.Reset()
		signed.Write(raw)
	}
	if _, err := out.Write(signed.Bytes()); err != nil {
		return nil, &PackagingError{Msg: "could not write changes", Err: err}
	}
	return changes, nil
}
