package store

import (
	"context"

	"pharmapos/m/domain"
)

const staffColumns = `SELECT id, username, full_name, role, password_hash FROM staff`

func (s *Store) InsertStaff(ctx context.Context, st *domain.Staff) error {
	id, err := s.insert(ctx, "insert staff",
		`INSERT INTO staff (username, full_name, role, password_hash) VALUES (?, ?, ?, ?) RETURNING id`,
		st.Username, st.FullName, st.Role, st.PasswordHash)
	if err != nil {
		return err
	}
	st.ID = id
	return nil
}

func (s *Store) StaffByUsername(ctx context.Context, username string) (domain.Staff, error) {
	var st domain.Staff
	if err := s.get(ctx, "get staff by username", &st, staffColumns+` WHERE username = ?`, username); err != nil {
		return domain.Staff{}, err
	}
	return st, nil
}

func (s *Store) StaffByID(ctx context.Context, id int64) (domain.Staff, error) {
	var st domain.Staff
	if err := s.get(ctx, "get staff", &st, staffColumns+` WHERE id = ?`, id); err != nil {
		return domain.Staff{}, err
	}
	return st, nil
}

func (s *Store) CountStaff(ctx context.Context) (int64, error) {
	var n int64
	err := s.get(ctx, "count staff", &n, `SELECT COUNT(*) FROM staff`)
	return n, err
}
