package em7565

import (
	"fmt"
	"strings"

	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/LeoCommon/cellmodem/pkg/tokenfind"
)

const bandProfileNameLen = 64

// BandProfile is a named set of band masks. The masks are printed and written in field order.
type BandProfile struct {
	Index   int
	Name    string
	GSMUMTS uint64
	LTE     uint64
	TDS     uint64
	LTE2    uint64
	LTE3    uint64
	LTE4    uint64
}

func (p *BandProfile) masks() []*uint64 {
	return []*uint64{&p.GSMUMTS, &p.LTE, &p.TDS, &p.LTE2, &p.LTE3, &p.LTE4}
}

const (
	bandProfileHead  = `(\d+),\s+(.*)`
	bandProfileMasks = `\s*([0-9A-Fa-f]+)\s+([0-9A-Fa-f]+)\s+([0-9A-Fa-f]+)\s+([0-9A-Fa-f]+)\s+([0-9A-Fa-f]+)\s+([0-9A-Fa-f]+)`
)

// parseBandProfile reads one profile line. Index and name are separated from the masks by two spaces.
func (m *Modem) parseBandProfile(line string) (BandProfile, bool) {
	var p BandProfile

	head, masks, found := strings.Cut(line, "  ")
	if !found {
		return p, false
	}

	spans, err := m.x.MatchMulti(head, bandProfileHead, 2)
	if err != nil {
		return p, false
	}
	idx, err := tokenfind.ParseInt(spans[0].In(head), 10)
	if err != nil {
		return p, false
	}
	p.Index = int(idx)
	p.Name = strings.TrimSpace(spans[1].In(head))
	if len(p.Name) > bandProfileNameLen {
		p.Name = p.Name[:bandProfileNameLen]
	}

	spans, err = m.x.MatchMulti(masks, bandProfileMasks, 6)
	if err != nil {
		return p, false
	}
	for i, target := range p.masks() {
		v, err := tokenfind.ParseUint(spans[i].In(masks), 16)
		if err != nil {
			return p, false
		}
		*target = v
	}

	return p, true
}

// SelectBandProfile activates the profile with index idx.
func (m *Modem) SelectBandProfile(idx int) error {
	if idx < 0 || idx > 99 {
		return invalidArgument("band profile index %d", idx)
	}

	_, err := m.exec(cmdSetBandProfile, fmt.Sprintf("%02d", idx))
	return err
}

// BandProfile reads the active profile.
func (m *Modem) BandProfile() (BandProfile, error) {
	text, err := m.exec(cmdGetBandProfile, "")
	if err != nil {
		return BandProfile{}, err
	}

	body, err := m.x.String(text, `(?s)(.*)OK`, 0)
	if err != nil {
		return BandProfile{}, fmt.Errorf("%w: band profile: %w", modem.ErrFailed, err)
	}

	for _, line := range tokenfind.Split(body, tokenfind.RowDelimiters) {
		if p, ok := m.parseBandProfile(line); ok {
			return p, nil
		}
	}
	return BandProfile{}, fmt.Errorf("%w: band profile: %w", modem.ErrFailed, tokenfind.ErrNoMatch)
}

// BandProfiles lists all stored profiles. Lines ahead of the first profile are skipped,
// the list ends at the first line that is not a profile.
func (m *Modem) BandProfiles() ([]BandProfile, error) {
	text, err := m.exec(cmdListBandProfiles, "")
	if err != nil {
		return nil, err
	}

	var profiles []BandProfile
	for _, line := range tokenfind.Split(text, tokenfind.RowDelimiters) {
		// a different table starts with an indented line
		if len(profiles) > 0 && strings.HasPrefix(line, " ") {
			break
		}

		p, ok := m.parseBandProfile(line)
		if !ok {
			if len(profiles) > 0 {
				break
			}
			continue
		}
		profiles = append(profiles, p)
	}

	return profiles, nil
}

// AddBandProfile stores p under p.Index, replacing an existing profile.
func (m *Modem) AddBandProfile(p BandProfile) error {
	if p.Index < 0 || p.Index > 99 {
		return invalidArgument("band profile index %d", p.Index)
	}
	// the listing separates name and masks with two spaces
	if p.Name == "" || len(p.Name) > bandProfileNameLen || strings.ContainsAny(p.Name, "\"\r\n") || strings.Contains(p.Name, "  ") {
		return invalidArgument("band profile name %q", p.Name)
	}

	params := fmt.Sprintf(`%d,"%s"`, p.Index, p.Name)
	for _, mask := range p.masks() {
		params += fmt.Sprintf(",%x", *mask)
	}

	_, err := m.exec(cmdSetBandProfile, params)
	return err
}

func (m *Modem) RemoveBandProfile(idx int) error {
	if idx < 0 || idx > 99 {
		return invalidArgument("band profile index %d", idx)
	}

	_, err := m.exec(cmdSetBandProfile, fmt.Sprintf(`%02d,"",0`, idx))
	return err
}
