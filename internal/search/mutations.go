package search

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidDestination rejects a move or copy that cannot be carried out.
	ErrInvalidDestination = errors.New("invalid destination")
	// ErrPermissionDenied rejects a change the user holds no write access for.
	ErrPermissionDenied = errors.New("permission denied")
)

// resolveDest turns a destination into a full path. A bare name keeps the
// current parent directory.
func resolveDest(o *Object, dest string) (string, error) {
	dest = strings.TrimSpace(dest)
	if dest == "" || dest == "." || dest == ".." {
		return "", fmt.Errorf("%q: %w", dest, ErrInvalidDestination)
	}
	if !strings.Contains(dest, "/") {
		return path.Join(o.Path, dest), nil
	}
	full := path.Clean("/" + dest)
	if full == "/" {
		return "", fmt.Errorf("%q: %w", dest, ErrInvalidDestination)
	}
	return full, nil
}

// ResolveDestination returns the full path a move or copy of o to dest
// would produce.
func ResolveDestination(o *Object, dest string) (string, error) {
	return resolveDest(o, dest)
}

// CanWriteDir reports whether username may create entries in dir. Users
// always write inside their own home directory; elsewhere the indexed
// directory must grant them write access.
func (s *Store) CanWriteDir(ctx context.Context, system, username, dir string) (bool, error) {
	dir = cleanDir(dir)
	if username == "" || dir == "/" {
		return false, nil
	}
	if ownerOf(dir) == username {
		return true, nil
	}
	d, err := s.FromFilePath(ctx, system, username, dir)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d.IsDir() && d.CanWrite(username), nil
}

func checkNotInside(src, dest string) error {
	if dest == src || strings.HasPrefix(dest, src+"/") {
		return fmt.Errorf("%s is inside %s: %w", dest, src, ErrInvalidDestination)
	}
	return nil
}

// Copy clones o, and its subtree when o is a directory, to dest. The original
// documents are left untouched and o is returned.
func (s *Store) Copy(ctx context.Context, o *Object, username, dest string) (*Object, error) {
	destFull, err := resolveDest(o, dest)
	if err != nil {
		return nil, err
	}
	srcFull := o.FullPath()
	if o.IsDir() {
		if err := checkNotInside(srcFull, destFull); err != nil {
			return nil, err
		}
		children, err := s.ListingRecursive(ctx, o.SystemID, username, srcFull)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			c := child.Clone()
			c.ID = uuid.NewString()
			c.relocate(rewritePrefix(child.Path, srcFull, destFull), child.Name)
			if err := s.save(ctx, c); err != nil {
				return nil, fmt.Errorf("copy %s: %w", child.FullPath(), err)
			}
		}
	}

	c := o.Clone()
	c.ID = uuid.NewString()
	c.relocate(path.Dir(destFull), path.Base(destFull))
	if err := s.save(ctx, c); err != nil {
		return nil, fmt.Errorf("copy %s: %w", srcFull, err)
	}
	s.log.Debug("copied", "system", o.SystemID, "from", srcFull, "to", destFull)
	return o, nil
}

// Move relocates o, and its subtree when o is a directory, to dest.
func (s *Store) Move(ctx context.Context, o *Object, username, dest string) (*Object, error) {
	destFull, err := resolveDest(o, dest)
	if err != nil {
		return nil, err
	}
	return s.relocateTree(ctx, o, destFull)
}

// Rename gives o a new name in its current directory.
func (s *Store) Rename(ctx context.Context, o *Object, username, newName string) (*Object, error) {
	if newName == "" || strings.Contains(newName, "/") || newName == "." || newName == ".." {
		return nil, fmt.Errorf("rename to %q: %w", newName, ErrInvalidDestination)
	}
	return s.relocateTree(ctx, o, path.Join(o.Path, newName))
}

// relocateTree rewrites every descendant in place and then o itself. The
// subtree is read without an access filter so no child is left behind.
func (s *Store) relocateTree(ctx context.Context, o *Object, destFull string) (*Object, error) {
	srcFull := o.FullPath()
	if destFull == srcFull {
		return o, nil
	}
	if o.IsDir() {
		if err := checkNotInside(srcFull, destFull); err != nil {
			return nil, err
		}
		children, err := s.ListingRecursive(ctx, o.SystemID, "", srcFull)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			child.relocate(rewritePrefix(child.Path, srcFull, destFull), child.Name)
			if err := s.save(ctx, child); err != nil {
				return nil, fmt.Errorf("move %s: %w", child.FullPath(), err)
			}
		}
	}

	o.relocate(path.Dir(destFull), path.Base(destFull))
	if err := s.save(ctx, o); err != nil {
		return nil, fmt.Errorf("move %s: %w", srcFull, err)
	}
	s.log.Debug("moved", "system", o.SystemID, "from", srcFull, "to", destFull)
	return o, nil
}

// DeleteRecursive removes the subtree under o and o itself, returning the
// number of deleted documents.
func (s *Store) DeleteRecursive(ctx context.Context, o *Object) (int, error) {
	count := 0
	if o.IsDir() {
		children, err := s.ListingRecursive(ctx, o.SystemID, "", o.FullPath())
		if err != nil {
			return count, err
		}
		for _, child := range children {
			if err := s.delete(ctx, child.ID); err != nil {
				return count, fmt.Errorf("delete %s: %w", child.FullPath(), err)
			}
			count++
		}
	}
	if err := s.delete(ctx, o.ID); err != nil {
		return count, fmt.Errorf("delete %s: %w", o.FullPath(), err)
	}
	return count + 1, nil
}

// Share grants level to user on o, on its subtree when o is a directory, and
// on every indexed ancestor up to the root so the path stays traversable.
func (s *Store) Share(ctx context.Context, o *Object, username, user string, level PermissionLevel) (*Object, error) {
	if o.IsDir() {
		children, err := s.ListingRecursive(ctx, o.SystemID, username, o.FullPath())
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if _, err := s.UpdatePems(ctx, child, user, level); err != nil {
				return nil, err
			}
		}
	}

	for dir := o.Path; dir != "/" && dir != "."; dir = path.Dir(dir) {
		ancestor, err := s.FromFilePath(ctx, o.SystemID, username, dir)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, err := s.UpdatePems(ctx, ancestor, user, level); err != nil {
			return nil, err
		}
	}

	return s.UpdatePems(ctx, o, user, level)
}

// UpdatePems replaces any grant user holds on o with level and saves o.
func (s *Store) UpdatePems(ctx context.Context, o *Object, user string, level PermissionLevel) (*Object, error) {
	pems := make([]Pem, 0, len(o.Permissions)+1)
	for _, p := range o.Permissions {
		if p.Username != user {
			pems = append(pems, p)
		}
	}
	o.Permissions = append(pems, Pem{
		Username:   user,
		Recursive:  true,
		Permission: level.Permission(),
	})
	if err := s.save(ctx, o); err != nil {
		return nil, fmt.Errorf("update permissions on %s: %w", o.FullPath(), err)
	}
	return o, nil
}
