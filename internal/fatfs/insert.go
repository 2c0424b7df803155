package fatfs

// InsertFile adds a new entry at position idx (0 <= idx <= len(entries)),
// reserving space for data (StoredSize bytes) immediately before the entry
// currently at idx on disk (or at the end of the data region, if idx is
// past the last entry), then writes data into the reserved space.
//
// This mirrors the original engine's nine-step insert algorithm: grow the
// header/FAT region first so every subsequent offset computation accounts
// for it, then open a gap for the file's own bytes, then splice the new
// Entry into the in-memory table.
func (a *Archive) InsertFile(idx int, newEntry Entry, data []byte) error {
	const op = "fatfs.InsertFile"
	if idx < 0 || idx > len(a.entries) {
		return wrap(op, newErr("InsertFile", NotFound, nil))
	}
	if a.format.MaxFilenameLen() > 0 && len(newEntry.Name) > a.format.MaxFilenameLen() {
		return wrap(op, newErr("InsertFile", FilenameTooLong, nil))
	}
	if newEntry.Name != "" && a.Find(newEntry.Name) != -1 {
		return wrap(op, newErr("InsertFile", DuplicateName, nil))
	}
	newEntry.StoredSize = int64(len(data))
	if newEntry.RealSize == 0 {
		newEntry.RealSize = newEntry.StoredSize
	}

	headerGrowth, err := a.format.PreInsert(a.entries, idx, &newEntry)
	if err != nil {
		return wrap(op, err)
	}
	if headerGrowth != 0 {
		if err := a.shiftData(a.headerRegionStart(), headerGrowth); err != nil {
			return wrap(op, err)
		}
		a.headerLen += headerGrowth
	}

	var dataAt int64
	if idx < len(a.entries) {
		dataAt = a.entries[idx].Offset
	} else {
		dataAt = a.dataRegionEnd()
	}

	span := newEntry.HeaderLen + newEntry.StoredSize
	if span != 0 {
		if err := a.shiftData(dataAt, span); err != nil {
			return wrap(op, err)
		}
	}
	newEntry.Offset = dataAt

	a.entries = append(a.entries, Entry{})
	copy(a.entries[idx+1:], a.entries[idx:])
	a.entries[idx] = newEntry
	for i := range a.entries {
		a.entries[i].Index = i
	}

	if len(data) > 0 {
		if _, err := a.backing.WriteAt(data, dataAt+newEntry.HeaderLen); err != nil {
			return wrap(op, err)
		}
	}
	return nil
}
