package echoapi

import (
	"io/ioutil"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/mission"
)

type assetApi struct {
	svc      mission.Service
	validate *validator.Validate
}

// UploadAssetForm is the non-file part of an asset upload.
type UploadAssetForm struct {
	Bucket string `json:"bucket" form:"bucket" validate:"omitempty,max=63,slug"`
	Prefix string `json:"prefix" form:"prefix" validate:"omitempty,relpath"`
}

func registerAssetAPI(g *echo.Group, deps ServerDeps) {
	api := assetApi{
		svc:      deps.MissionSvc,
		validate: deps.Validate,
	}
	g.POST("/assets", api.upload, roleMiddleware(authorRoles...))
}

func (api *assetApi) upload(ctx echo.Context) error {
	form := UploadAssetForm{
		Bucket: ctx.FormValue("bucket"),
		Prefix: ctx.FormValue("prefix"),
	}
	if err := api.validate.Struct(form); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return errMissingFile
		}
		return errors.Wrap(err, "reading multipart form")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()
	data, err := ioutil.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading uploaded file")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}

	asset, err := api.svc.UploadAsset(ctx.Request().Context(), mission.AssetUpload{
		Bucket:      form.Bucket,
		Prefix:      form.Prefix,
		FileName:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return errors.Wrap(err, "uploading asset")
	}
	return ctx.JSON(http.StatusCreated, asset)
}
