package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/flowir/internal/ir"
)

// Record is one cached parse result.
type Record struct {
	SourceKey     string
	Language      string
	FilePath      string
	ModuleHash    string
	RunID         string
	Seq           int64
	IRVersion     string
	EngineVersion string
	Module        *ir.Module
}

// Entry describes a cached module without decoding it.
type Entry struct {
	SourceKey     string
	Language      string
	FilePath      string
	ModuleHash    string
	FunctionCount int
	RunID         string
	Seq           int64
}

// FunctionRef locates one function graph in the cache.
type FunctionRef struct {
	SourceKey string
	FilePath  string
	Name      string
	NodeCount int
	EdgeCount int
}

// PutModule stores m under sourceKey, replacing any previous entry for
// the key. The module is stored as canonical JSON together with its hash;
// runID identifies the engine run that produced it.
func (s *Store) PutModule(ctx context.Context, sourceKey, runID string, m *ir.Module) error {
	data, err := ir.MarshalCanonical(m)
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}
	hash, err := ir.ModuleHash(m)
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}
	filePath, _ := m.Metadata["file_path"].(ir.String)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put module: begin: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM modules`).Scan(&seq); err != nil {
		return fmt.Errorf("put module: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO modules
		(source_key, language, file_path, module_hash, module_json, function_count, run_id, seq, ir_version, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_key) DO UPDATE SET
			module_hash = excluded.module_hash,
			module_json = excluded.module_json,
			function_count = excluded.function_count,
			run_id = excluded.run_id,
			seq = excluded.seq
	`,
		sourceKey,
		m.Language,
		string(filePath),
		hash,
		string(data),
		len(m.Functions),
		runID,
		seq,
		ir.IRVersion,
		ir.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM functions WHERE source_key = ?`, sourceKey); err != nil {
		return fmt.Errorf("put module: clear functions: %w", err)
	}
	for i, fn := range m.Functions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO functions (source_key, position, name, node_count, edge_count)
			VALUES (?, ?, ?, ?, ?)
		`, sourceKey, i, fn.Name, len(fn.Nodes), len(fn.Edges))
		if err != nil {
			return fmt.Errorf("put module: function %s: %w", fn.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put module: commit: %w", err)
	}
	return nil
}

// GetModule returns the record stored under sourceKey.
// Returns sql.ErrNoRows if not found. A row whose content no longer
// matches its recorded hash is reported as an error.
func (s *Store) GetModule(ctx context.Context, sourceKey string) (Record, error) {
	var rec Record
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT source_key, language, file_path, module_hash, module_json, run_id, seq, ir_version, engine_version
		FROM modules
		WHERE source_key = ?
	`, sourceKey).Scan(
		&rec.SourceKey,
		&rec.Language,
		&rec.FilePath,
		&rec.ModuleHash,
		&data,
		&rec.RunID,
		&rec.Seq,
		&rec.IRVersion,
		&rec.EngineVersion,
	)
	if err != nil {
		return Record{}, err
	}

	m, err := ir.ParseModule([]byte(data))
	if err != nil {
		return Record{}, fmt.Errorf("decode module %s: %w", sourceKey, err)
	}
	hash, err := ir.ModuleHash(m)
	if err != nil {
		return Record{}, fmt.Errorf("hash module %s: %w", sourceKey, err)
	}
	if hash != rec.ModuleHash {
		return Record{}, fmt.Errorf("module %s: content hash %s does not match recorded %s", sourceKey, hash, rec.ModuleHash)
	}
	rec.Module = m
	return rec, nil
}

// ListModules returns every cached module ordered by seq, then source key.
// Returns an empty slice (not nil) when the cache is empty.
func (s *Store) ListModules(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_key, language, file_path, module_hash, function_count, run_id, seq
		FROM modules
		ORDER BY seq ASC, source_key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SourceKey, &e.Language, &e.FilePath, &e.ModuleHash, &e.FunctionCount, &e.RunID, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return entries, nil
}

// FindFunctions returns every cached function graph with the given name,
// ordered by module seq and position.
func (s *Store) FindFunctions(ctx context.Context, name string) ([]FunctionRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.source_key, m.file_path, f.name, f.node_count, f.edge_count
		FROM functions f
		JOIN modules m ON m.source_key = f.source_key
		WHERE f.name = ?
		ORDER BY m.seq ASC, f.position ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	defer rows.Close()

	refs := []FunctionRef{}
	for rows.Next() {
		var r FunctionRef
		if err := rows.Scan(&r.SourceKey, &r.FilePath, &r.Name, &r.NodeCount, &r.EdgeCount); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	return refs, nil
}

// CountModules returns the number of cached modules.
func (s *Store) CountModules(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM modules`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return n, nil
}

// DeleteModule removes the entry for sourceKey along with its function
// rows. Deleting a missing key is not an error; the return value reports
// whether a row was removed.
func (s *Store) DeleteModule(ctx context.Context, sourceKey string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modules WHERE source_key = ?`, sourceKey)
	if err != nil {
		return false, fmt.Errorf("delete module: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete module: %w", err)
	}
	return n > 0, nil
}

// Clear removes every cached module and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM modules`)
	if err != nil {
		return 0, fmt.Errorf("clear modules: %w", err)
	}
	return res.RowsAffected()
}

// IsNotFound reports whether err is the not-found result of GetModule.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
