package filter

// Options names the common single-field filters. It is pure sugar over Add:
// every set field appends one condition and carries no semantics of its own.
type Options struct {
	Status    string // status equals
	Directive string // directive contains
	Family    string // type equals
	Source    string // source equals
	Number    string // number contains
	Version   string // version equals

	// HasVersion filters on version existence. The empty string and the
	// literal "null" placeholder from older stores both mean "no version".
	HasVersion *bool

	// HasRemoteInfo filters on the presence of portal lookup data.
	HasRemoteInfo *bool

	// DateStart/DateEnd bound extracted_at.
	DateStart string
	DateEnd   string
}

// noVersionValues are the values historically meaning "no version" in stored
// records, alongside a nil year.
var noVersionValues = []any{nil, "", "null"}

var noRemoteInfoValues = []any{nil, ""}

// AddOptions appends one condition per set option.
func (f *Filter) AddOptions(opts Options) *Filter {
	if opts.Status != "" {
		f.Add("status", Equals, opts.Status)
	}
	if opts.Directive != "" {
		f.Add("directive", Contains, opts.Directive)
	}
	if opts.Family != "" {
		f.Add("type", Equals, opts.Family)
	}
	if opts.Source != "" {
		f.Add("source", Equals, opts.Source)
	}
	if opts.Number != "" {
		f.Add("number", Contains, opts.Number)
	}
	if opts.Version != "" {
		f.Add("version", Equals, opts.Version)
	}
	if opts.HasVersion != nil {
		if *opts.HasVersion {
			f.Add("version", NotIn, noVersionValues)
		} else {
			f.Add("version", In, noVersionValues)
		}
	}
	if opts.HasRemoteInfo != nil {
		if *opts.HasRemoteInfo {
			f.Add("etsi_info", NotIn, noRemoteInfoValues)
		} else {
			f.Add("etsi_info", In, noRemoteInfoValues)
		}
	}
	if opts.DateStart != "" {
		f.Add("extracted_at", GreaterThan, opts.DateStart)
	}
	if opts.DateEnd != "" {
		f.Add("extracted_at", LessThan, opts.DateEnd)
	}
	return f
}
