// data.go
//
// Data, notification and Box services for the DesignSafe-CI portal
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of portal-data.
// portal-data is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// portal-data is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with portal-data.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/middleware"
	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/designsafe-ci/portal-data/internal/types"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"github.com/gofiber/fiber/v2"
)

// DataHandler serves listings and file operations from the search index
type DataHandler struct {
	Store *search.Store
	Log   *logger.Logger
}

// ListingResponse is a page of a directory listing.
type ListingResponse struct {
	System string        `json:"system"`
	Path   string        `json:"path"`
	Total  int64         `json:"total"`
	Files  []*agave.File `json:"files"`
}

// FileActionInput is the body of a file operation.
type FileActionInput struct {
	Action     string                 `json:"action"`
	Path       string                 `json:"path"`
	Name       string                 `json:"name"`
	Users      types.FlexList[string] `json:"users"`
	Permission search.PermissionLevel `json:"permission"`
}

func toFiles(objs []*search.Object) []*agave.File {
	files := make([]*agave.File, len(objs))
	for i, o := range objs {
		files[i] = o.ToFile()
	}
	return files
}

func forbidden(c *fiber.Ctx, msg string) error {
	ce := types.Forbidden(msg)
	ce.Type = "data.authorization.write"
	return utils.ErrorResponse(c, ce.Message, ce.Code, ce.Type)
}

// authorizeAction checks that username may run action on o. Copying needs
// read access to o; every other action needs ownership or a write grant.
// Copy and move also need write access to the destination directory.
func (h *DataHandler) authorizeAction(ctx context.Context, o *search.Object, username string, in *FileActionInput) error {
	switch in.Action {
	case "copy":
		if !o.CanRead(username) {
			return fmt.Errorf("read %s: %w", o.FullPath(), search.ErrPermissionDenied)
		}
	case "move", "rename", "share", "delete":
		if !o.CanWrite(username) {
			return fmt.Errorf("%s %s: %w", in.Action, o.FullPath(), search.ErrPermissionDenied)
		}
	default:
		return nil
	}
	if in.Action != "copy" && in.Action != "move" {
		return nil
	}

	dest, err := search.ResolveDestination(o, in.Path)
	if err != nil {
		return err
	}
	ok, err := h.Store.CanWriteDir(ctx, o.SystemID, username, path.Dir(dest))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("write %s: %w", path.Dir(dest), search.ErrPermissionDenied)
	}
	return nil
}

func (h *DataHandler) searchError(c *fiber.Ctx, err error, errorType string) error {
	switch {
	case errors.Is(err, search.ErrNotFound):
		return utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, search.ErrPermissionDenied):
		return forbidden(c, err.Error())
	case errors.Is(err, search.ErrInvalidDestination):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadRequest, "data.validation.destination")
	}
	var te *search.TransportError
	if errors.As(err, &te) {
		h.Log.Error("search backend failed", "type", errorType, "error", err)
		return utils.ErrorResponse(c, err.Error(), fiber.StatusBadGateway, errorType)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// Listing handles GET /api/data/listing/:system/*
// @Summary List a directory
// @Description Lists the direct children of a directory visible to the user
// @Tags Data
// @Produce json
// @Param system path string true "Storage system id"
// @Param path path string false "Directory path"
// @Param offset query int false "First entry"
// @Param limit query int false "Page size"
// @Success 200 {object} handlers.ListingResponse
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /data/listing/{system}/{path} [get]
func (h *DataHandler) Listing(c *fiber.Ctx) error {
	system, dir := c.Params("system"), wildcardPath(c)
	page := search.Page{
		From: queryInt(c, "offset", 0),
		Size: queryInt(c, "limit", search.DefaultPageSize),
	}

	objs, total, err := h.Store.Listing(c.UserContext(), system, middleware.Username(c), dir, page)
	if err != nil {
		return h.searchError(c, err, "data.listing")
	}
	return c.Status(fiber.StatusOK).JSON(ListingResponse{
		System: system,
		Path:   dir,
		Total:  total,
		Files:  toFiles(objs),
	})
}

// Search handles GET /api/data/search/:system/*
// @Summary Recursive listing
// @Description Lists every descendant of a directory visible to the user
// @Tags Data
// @Produce json
// @Param system path string true "Storage system id"
// @Param path path string false "Directory path"
// @Success 200 {object} handlers.ListingResponse
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /data/search/{system}/{path} [get]
func (h *DataHandler) Search(c *fiber.Ctx) error {
	system, dir := c.Params("system"), wildcardPath(c)

	objs, err := h.Store.ListingRecursive(c.UserContext(), system, middleware.Username(c), dir)
	if err != nil {
		return h.searchError(c, err, "data.search")
	}
	return c.Status(fiber.StatusOK).JSON(ListingResponse{
		System: system,
		Path:   dir,
		Total:  int64(len(objs)),
		Files:  toFiles(objs),
	})
}

// FileAction handles POST /api/data/files/:system/*
// @Summary File operation
// @Description Copies, moves, renames, shares or deletes an indexed file or directory
// @Tags Data
// @Accept json
// @Produce json
// @Param system path string true "Storage system id"
// @Param path path string true "File path"
// @Param body body handlers.FileActionInput true "Operation"
// @Success 200 {object} agave.File
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 502 {object} utils.ErrorResponseStruct
// @Router /data/files/{system}/{path} [post]
func (h *DataHandler) FileAction(c *fiber.Ctx) error {
	var in FileActionInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
	}

	ctx := c.UserContext()
	system, fullPath, username := c.Params("system"), wildcardPath(c), middleware.Username(c)
	if fullPath == "/" {
		return utils.ErrorResponse(c, "The root directory cannot be changed", fiber.StatusBadRequest, "data.validation.path")
	}

	o, err := h.Store.FromFilePath(ctx, system, username, fullPath)
	if err != nil {
		return h.searchError(c, err, "data.files."+in.Action)
	}
	if err := h.authorizeAction(ctx, o, username, &in); err != nil {
		return h.searchError(c, err, "data.files."+in.Action)
	}

	var result *search.Object
	switch in.Action {
	case "copy":
		result, err = h.Store.Copy(ctx, o, username, in.Path)
	case "move":
		result, err = h.Store.Move(ctx, o, username, in.Path)
	case "rename":
		result, err = h.Store.Rename(ctx, o, username, in.Name)
	case "share":
		level, perr := search.ParsePermissionLevel(string(in.Permission))
		if perr != nil || len(in.Users) == 0 {
			return utils.ErrorResponse(c, "Share needs users and a permission", fiber.StatusBadRequest, "data.validation.share")
		}
		result = o
		for _, user := range in.Users {
			if result, err = h.Store.Share(ctx, result, username, user, level); err != nil {
				break
			}
		}
	case "delete":
		var n int
		if n, err = h.Store.DeleteRecursive(ctx, o); err != nil {
			return h.searchError(c, err, "data.files.delete")
		}
		h.Log.Info("deleted", "system", system, "path", fullPath, "user", username, "count", n)
		return utils.MutationSuccessResponse(c, int64(n))
	default:
		return utils.ErrorResponse(c, fmt.Sprintf("Unknown action '%s'", in.Action), fiber.StatusBadRequest, "data.validation.action")
	}
	if err != nil {
		return h.searchError(c, err, "data.files."+in.Action)
	}

	h.Log.Info("file action", "action", in.Action, "system", system, "path", fullPath, "user", username)
	return c.Status(fiber.StatusOK).JSON(result.ToFile())
}
