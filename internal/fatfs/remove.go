package fatfs

// RemoveFile deletes entries[idx], closing the gap its data occupied and
// shrinking the header/FAT region by whatever the format's PreRemove hook
// reports (most formats shrink by exactly one FAT entry's width).
func (a *Archive) RemoveFile(idx int) error {
	const op = "fatfs.RemoveFile"
	if idx < 0 || idx >= len(a.entries) {
		return wrap(op, newErr("RemoveFile", NotFound, nil))
	}

	headerShrink, err := a.format.PreRemove(a.entries, idx)
	if err != nil {
		return wrap(op, err)
	}

	dataAt := a.entries[idx].Offset
	span := a.entries[idx].HeaderLen + a.entries[idx].StoredSize
	if span != 0 {
		if err := a.shiftData(dataAt, -span); err != nil {
			return wrap(op, err)
		}
	}

	a.entries = append(a.entries[:idx], a.entries[idx+1:]...)
	for i := range a.entries {
		a.entries[i].Index = i
	}

	if headerShrink != 0 {
		if err := a.shiftData(a.headerRegionStart(), -headerShrink); err != nil {
			return wrap(op, err)
		}
		a.headerLen -= headerShrink
	}
	return nil
}
