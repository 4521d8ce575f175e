package discovery

// aggregator merges announcements by instance name.
type aggregator struct {
	hosts map[string]*Host
}

func newAggregator() *aggregator {
	return &aggregator{hosts: make(map[string]*Host)}
}

// add merges rec and returns a snapshot of the host when it is new or its
// addresses or services changed.
func (a *aggregator) add(rec record) (*Host, bool) {
	existing, found := a.hosts[rec.instance]
	if !found {
		h := &Host{
			Instance:  rec.instance,
			HostName:  rec.hostName,
			Port:      rec.port,
			Addresses: mergeAddresses(nil, rec.addresses),
			Services:  []string{rec.service},
			Text:      parseTXT(rec.text),
		}
		a.hosts[rec.instance] = h
		return h.clone(), true
	}

	changed := false
	before := len(existing.Addresses)
	existing.Addresses = mergeAddresses(existing.Addresses, rec.addresses)
	if len(existing.Addresses) != before {
		changed = true
	}
	if !contains(existing.Services, rec.service) {
		existing.Services = append(existing.Services, rec.service)
		changed = true
	}
	if existing.HostName == "" && rec.hostName != "" {
		existing.HostName = rec.hostName
		changed = true
	}
	for k, v := range parseTXT(rec.text) {
		if old, ok := existing.Text[k]; ok && old == v {
			continue
		}
		if existing.Text == nil {
			existing.Text = make(map[string]string)
		}
		existing.Text[k] = v
		changed = true
	}
	if !changed {
		return nil, false
	}
	return existing.clone(), true
}

// remove withdraws the addresses in rec. It returns true when the instance
// has no addresses left and was dropped.
func (a *aggregator) remove(rec record) bool {
	existing, found := a.hosts[rec.instance]
	if !found {
		return false
	}
	existing.Addresses = removeAddresses(existing.Addresses, rec.addresses)
	if len(existing.Addresses) == 0 {
		delete(a.hosts, rec.instance)
		return true
	}
	return false
}

// snapshot returns copies of all known hosts sorted by instance.
func (a *aggregator) snapshot() []*Host {
	out := make([]*Host, 0, len(a.hosts))
	for _, h := range a.hosts {
		out = append(out, h.clone())
	}
	SortHosts(out)
	return out
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses filters gone out of addresses.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, addr := range gone {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
