package telemetry

// Filter applies the inclusion allow-list (empty = everything passes)
// and then the exclusion deny-list, before any translation happens.
type Filter struct {
	allow map[string]struct{}
	deny  map[string]struct{}
}

func NewFilter(allow, deny []string) *Filter {
	f := &Filter{}
	if len(allow) > 0 {
		f.allow = make(map[string]struct{}, len(allow))
		for _, t := range allow {
			f.allow[t] = struct{}{}
		}
	}
	if len(deny) > 0 {
		f.deny = make(map[string]struct{}, len(deny))
		for _, t := range deny {
			f.deny[t] = struct{}{}
		}
	}
	return f
}

func (f *Filter) Pass(msgType string) bool {
	if f.allow != nil {
		if _, ok := f.allow[msgType]; !ok {
			return false
		}
	}
	if f.deny != nil {
		if _, ok := f.deny[msgType]; ok {
			return false
		}
	}
	return true
}
