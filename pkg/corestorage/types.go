package corestorage

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/blacktop/darwinist/pkg/blockparse"
	"github.com/go-viper/mapstructure/v2"
)

// List is the parsed `diskutil coreStorage list` output.
type List struct {
	Count  int      `json:"count"`
	Groups []*Group `json:"groups"`
}

// Group is a CoreStorage logical volume group.
type Group struct {
	UUID      string         `mapstructure:"-" json:"uuid"`
	Name      string         `mapstructure:"name" json:"name,omitempty"`
	Status    string         `mapstructure:"status" json:"status,omitempty"`
	Size      int64          `mapstructure:"size" json:"size,omitempty"`
	FreeSpace int64          `mapstructure:"free_space" json:"free_space,omitempty"`
	Sequence  int64          `mapstructure:"sequence" json:"sequence,omitempty"`
	Extra     map[string]any `mapstructure:",remain" json:"extra,omitempty"`

	PhysicalVolumes []*PhysicalVolume `mapstructure:"-" json:"physical_volumes,omitempty"`
	Families        []*Family         `mapstructure:"-" json:"families,omitempty"`
}

// PhysicalVolume is a disk backing a group.
type PhysicalVolume struct {
	UUID   string         `mapstructure:"-" json:"uuid"`
	Status string         `mapstructure:"status" json:"status,omitempty"`
	Index  int64          `mapstructure:"index" json:"index"`
	Disk   string         `mapstructure:"disk" json:"disk,omitempty"`
	Size   int64          `mapstructure:"size" json:"size,omitempty"`
	Extra  map[string]any `mapstructure:",remain" json:"extra,omitempty"`
}

// Family is a logical volume family, the unit of encryption.
type Family struct {
	UUID                string         `mapstructure:"-" json:"uuid"`
	EncryptionStatus    string         `mapstructure:"encryption_status" json:"encryption_status,omitempty"`
	EncryptionContext   string         `mapstructure:"encryption_context" json:"encryption_context,omitempty"`
	EncryptionType      string         `mapstructure:"encryption_type" json:"encryption_type,omitempty"`
	ConversionStatus    string         `mapstructure:"conversion_status" json:"conversion_status,omitempty"`
	ConversionDirection string         `mapstructure:"conversion_direction" json:"conversion_direction,omitempty"`
	Sequence            int64          `mapstructure:"sequence" json:"sequence,omitempty"`
	Encrypted           bool           `mapstructure:"encrypted" json:"encrypted"`
	Extra               map[string]any `mapstructure:",remain" json:"extra,omitempty"`

	Volumes []*Volume `mapstructure:"-" json:"volumes,omitempty"`
}

// Volume is a logical volume.
type Volume struct {
	UUID          string         `mapstructure:"-" json:"uuid"`
	Disk          string         `mapstructure:"disk" json:"disk,omitempty"`
	Status        string         `mapstructure:"status" json:"status,omitempty"`
	Sequence      int64          `mapstructure:"sequence" json:"sequence,omitempty"`
	VolumeName    string         `mapstructure:"volume_name" json:"volume_name,omitempty"`
	LVName        string         `mapstructure:"lv_name" json:"lv_name,omitempty"`
	ContentHint   string         `mapstructure:"content_hint" json:"content_hint,omitempty"`
	SizeTotal     int64          `mapstructure:"size_total" json:"size_total,omitempty"`
	SizeConverted int64          `mapstructure:"size_converted" json:"size_converted,omitempty"`
	Revertible    string         `mapstructure:"revertible" json:"revertible,omitempty"`
	Extra         map[string]any `mapstructure:",remain" json:"extra,omitempty"`
}

// Volumes returns every logical volume of the group.
func (g *Group) Volumes() []*Volume {
	var vols []*Volume
	for _, f := range g.Families {
		vols = append(vols, f.Volumes...)
	}
	return vols
}

// FindVolume returns the logical volume with the given UUID or disk identifier.
func (l *List) FindVolume(id string) (*Volume, bool) {
	for _, g := range l.Groups {
		for _, v := range g.Volumes() {
			if v.UUID == id || v.Disk == id {
				return v, true
			}
		}
	}
	return nil, false
}

func fromTree(tree *blockparse.Tree) (*List, error) {
	list := &List{Count: tree.Count}
	for _, rec := range tree.Records {
		g := &Group{UUID: rec.Label()}
		if err := decode(rec, g); err != nil {
			return nil, err
		}
		for _, pvRec := range rec.ChildrenOf(KindPhysicalVolume) {
			pv := &PhysicalVolume{UUID: pvRec.Label()}
			if err := decode(pvRec, pv); err != nil {
				return nil, err
			}
			g.PhysicalVolumes = append(g.PhysicalVolumes, pv)
		}
		for _, famRec := range rec.ChildrenOf(KindFamily) {
			fam := &Family{UUID: famRec.Label()}
			if err := decode(famRec, fam); err != nil {
				return nil, err
			}
			for _, lvRec := range famRec.ChildrenOf(KindVolume) {
				lv := &Volume{UUID: lvRec.Label()}
				if err := decode(lvRec, lv); err != nil {
					return nil, err
				}
				fam.Volumes = append(fam.Volumes, lv)
			}
			g.Families = append(g.Families, fam)
		}
		list.Groups = append(list.Groups, g)
	}
	if !tree.HasCount {
		list.Count = len(list.Groups)
	}
	return list, nil
}

func decode(rec *blockparse.Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(zeroUnparsed),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(rec.Fields()); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", rec.Kind(), rec.Label(), err)
	}
	return nil
}

// zeroUnparsed leaves numeric and boolean fields at their zero value when
// diskutil printed something that did not coerce, the raw text stays on the record.
func zeroUnparsed(_ reflect.Type, to reflect.Type, data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return reflect.Zero(to).Interface(), nil
		}
	case reflect.Bool:
		if _, err := strconv.ParseBool(s); err != nil {
			return reflect.Zero(to).Interface(), nil
		}
	}
	return data, nil
}
