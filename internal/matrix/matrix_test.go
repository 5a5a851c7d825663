// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package matrix_test

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	jujutesting "github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/studyversion/internal/matrix"
)

type matrixSuite struct {
	jujutesting.IsolationSuite
}

var _ = gc.Suite(&matrixSuite{})

func (s *matrixSuite) TestParse(c *gc.C) {
	m, err := matrix.Parse([]byte("1\t2\t3\n4.5\t-5\t6e1\n\n7\n"))
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m, jc.DeepEquals, matrix.Matrix{{1, 2, 3}, {4.5, -5, 60}, {7}})
}

func (s *matrixSuite) TestParseEmpty(c *gc.C) {
	m, err := matrix.Parse(nil)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m, gc.HasLen, 0)
}

func (s *matrixSuite) TestParseInvalid(c *gc.C) {
	_, err := matrix.Parse([]byte("1\t2\n3\tx\n"))
	c.Check(err, gc.ErrorMatches, `value "x" on line 2 not valid`)
	c.Check(errors.Is(err, errors.NotValid), jc.IsTrue)
}

func (s *matrixSuite) TestWrite(c *gc.C) {
	path := filepath.Join(c.MkDir(), "m.txt")
	err := matrix.Write(path, matrix.Matrix{{1, 0.5}, {-2, 1e-7}})
	c.Assert(err, jc.ErrorIsNil)
	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "1.000000\t0.500000\n-2.000000\t0.000000\n")

	m, err := matrix.Read(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(m, jc.DeepEquals, matrix.Matrix{{1, 0.5}, {-2, 0}})
}

func (s *matrixSuite) TestWriteEmpty(c *gc.C) {
	path := filepath.Join(c.MkDir(), "m.txt")
	err := matrix.Write(path, nil)
	c.Assert(err, jc.ErrorIsNil)
	info, err := os.Stat(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info.Size(), gc.Equals, int64(0))
}

func (s *matrixSuite) TestColumns(c *gc.C) {
	m := matrix.Matrix{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
	}
	c.Check(m.Columns(1, 3), jc.DeepEquals, matrix.Matrix{{2, 3}, {6, 7}})
	c.Check(m.Column(0), jc.DeepEquals, matrix.Matrix{{1}, {5}})
	c.Check(m.Columns(2, 8), jc.DeepEquals, matrix.Matrix{{3, 4}, {7, 8}})
	c.Check(matrix.Matrix(nil).Column(0), gc.HasLen, 0)
}

func (s *matrixSuite) TestFill(c *gc.C) {
	c.Check(matrix.Tile([]float64{1, 0}, 2), jc.DeepEquals, matrix.Matrix{{1, 0}, {1, 0}})
	c.Check(matrix.Fill(3, 1, 1), jc.DeepEquals, matrix.Matrix{{1}, {1}, {1}})
}

func (s *matrixSuite) TestTouch(c *gc.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "fuelCost.txt")
	c.Assert(matrix.Touch(path), jc.ErrorIsNil)
	info, err := os.Stat(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(info.Size(), gc.Equals, int64(0))

	err = os.WriteFile(path, []byte("1\n"), 0644)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(matrix.Touch(path), jc.ErrorIsNil)
	data, err := os.ReadFile(path)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(data), gc.Equals, "1\n")
}
