package onnx

import (
	"testing"

	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"cropscan/internal/domain/entity"
)

func TestCheckInputShape(t *testing.T) {
	ok := []ort.Shape{
		{1, 256, 256, 3},
		{-1, 256, 256, 3},
		{-1, -1, -1, 3},
	}
	for _, dims := range ok {
		require.NoError(t, checkInputShape(&ort.InputOutputInfo{Name: "input", Dimensions: dims}))
	}

	bad := []ort.Shape{
		{1, 3, 256, 256},
		{1, 224, 224, 3},
		{256, 256, 3},
	}
	for _, dims := range bad {
		require.ErrorIs(t, checkInputShape(&ort.InputOutputInfo{Name: "input", Dimensions: dims}), entity.ErrModelContract)
	}

	require.ErrorIs(t, checkInputShape(nil), entity.ErrModelContract)
}

func TestFindInfo(t *testing.T) {
	infos := []ort.InputOutputInfo{{Name: "a"}, {Name: "b"}}
	require.Equal(t, "b", findInfo(infos, "b").Name)
	require.Nil(t, findInfo(infos, "c"))
}

func TestFileDigest_MissingFile(t *testing.T) {
	_, err := fileDigest("/nonexistent/model.onnx")
	require.Error(t, err)
}
