package fatfs

// RenameFile changes entries[idx]'s Name, after the format validates the
// new name (length, charset, duplicate check). Nameless formats (no
// filename field at all) reject every rename with UnsupportedOperation via
// MaxFilenameLen() == 0.
func (a *Archive) RenameFile(idx int, newName string) error {
	const op = "fatfs.RenameFile"
	if idx < 0 || idx >= len(a.entries) {
		return wrap(op, newErr("RenameFile", NotFound, nil))
	}
	if a.format.MaxFilenameLen() == 0 {
		return wrap(op, newErr("RenameFile", UnsupportedOperation, nil))
	}
	if len(newName) > a.format.MaxFilenameLen() {
		return wrap(op, newErr("RenameFile", FilenameTooLong, nil))
	}
	if other := a.Find(newName); other != -1 && other != idx {
		return wrap(op, newErr("RenameFile", DuplicateName, nil))
	}
	if err := a.format.PreRename(a.entries, idx, newName); err != nil {
		return wrap(op, err)
	}
	a.entries[idx].Name = newName
	return nil
}
