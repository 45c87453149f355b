/*
 * Copyright 2026 The Quire Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bake draws annotations permanently into the pages of a document.
//
// A bake always starts from the pristine original bytes and re-renders every
// known annotation, so baking the same input twice yields the same pages.
package bake

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"maps"
	"strconv"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/form"
	"seehuhn.de/go/pdf/pagetree"

	"github.com/quire-team/quire/pkg/annotation"
	"github.com/quire-team/quire/pkg/errors"
	"github.com/quire-team/quire/pkg/pdfops"
)

// ErrInvalidPageReference is reported for annotations on pages the document
// does not have.
var ErrInvalidPageReference = errors.InvalidArgument("invalid page reference").WithCode("ErrInvalidPageReference")

// xobjectName is the resource name the annotation layer is registered under.
// A numeric suffix is added when a page already uses it.
const xobjectName pdf.Name = "QuireAnnot"

// Skipped is an annotation that could not be drawn.
type Skipped struct {
	AnnotationID string
	PageIndex    int

	// Err carries "annotation" and "page" metadata.
	Err error
}

// Report describes the outcome of a bake.
type Report struct {
	// Pages is the number of pages of the document.
	Pages int

	// Applied is the number of annotations drawn.
	Applied int

	// Skipped lists the annotations left out, in processing order.
	Skipped []Skipped
}

func (r *Report) skip(a annotation.Annotation, pageIndex int, err error) {
	r.Skipped = append(r.Skipped, Skipped{
		AnnotationID: a.ID,
		PageIndex:    pageIndex,
		Err: errors.WithMetadata(err, map[string]string{
			"annotation": a.ID,
			"page":       strconv.Itoa(pageIndex),
		}),
	})
}

// Bake returns a new document with the given annotation sets drawn into the
// pages of original. Pages are processed in ascending order and the
// annotations of a page in stored order, so later annotations paint over
// earlier ones. Annotations that cannot be drawn are skipped and listed in
// the report; they never abort the bake. An error is only returned when the
// document itself cannot be read or written, in which case no bytes are
// returned.
func Bake(original []byte, sets []annotation.PageSet) ([]byte, *Report, error) {
	src := bytes.Clone(original)

	in, err := pdf.NewReader(bytes.NewReader(src), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open document: %s: %w", err.Error(), pdfops.ErrCorruptDocument)
	}
	defer func() {
		_ = in.Close()
	}()

	numPages, err := pagetree.NumPages(in)
	if err != nil {
		return nil, nil, fmt.Errorf("count pages: %s: %w", err.Error(), pdfops.ErrCorruptDocument)
	}

	report := &Report{Pages: numPages}
	byPage := groupByPage(sets, numPages, report)

	var buf bytes.Buffer
	sum := sha256.Sum256(src)
	id := sum[:16]
	out, err := pdf.NewWriter(&buf, max(in.GetMeta().Version, pdf.V1_7), &pdf.WriterOptions{
		ID: [][]byte{id, id},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create writer: %w", err)
	}

	b := &baker{
		in:     in,
		out:    out,
		rm:     pdf.NewResourceManager(out),
		copier: pdf.NewCopier(out, in),
		report: report,
	}
	tree := pagetree.NewWriter(out, b.rm)

	// Pages may refer to each other, e.g. through link annotations, so every
	// page reference is redirected before the first page is copied.
	pages := make([]sourcePage, numPages)
	for i := range pages {
		ref, dict, err := pagetree.GetPage(in, i)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %s: %w", i, err.Error(), pdfops.ErrCorruptDocument)
		}
		pages[i] = sourcePage{index: i, dict: dict, ref: out.Alloc()}
		if ref != 0 {
			b.copier.Redirect(ref, pages[i].ref)
		}
	}

	for _, page := range pages {
		dict, err := b.bakePage(page, byPage[page.index])
		if err != nil {
			return nil, nil, err
		}
		if err := tree.AppendPageDict(page.ref, dict); err != nil {
			return nil, nil, fmt.Errorf("append page %d: %w", page.index, err)
		}
	}

	treeRef, err := tree.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("close page tree: %w", err)
	}
	meta := out.GetMeta()
	meta.Catalog.Pages = treeRef
	meta.Info = in.GetMeta().Info

	if err := b.rm.Close(); err != nil {
		return nil, nil, fmt.Errorf("close resources: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, nil, fmt.Errorf("close document: %w", err)
	}

	return buf.Bytes(), report, nil
}

// groupByPage buckets annotation sets by page. Sets on pages outside the
// document are reported as skipped.
func groupByPage(sets []annotation.PageSet, numPages int, report *Report) map[int][]annotation.PageSet {
	byPage := make(map[int][]annotation.PageSet)
	for _, set := range annotation.SortSets(sets) {
		if set.PageIndex < 0 || set.PageIndex >= numPages {
			for _, a := range set.Annotations {
				report.skip(a, set.PageIndex, fmt.Errorf(
					"page %d of %d: %w", set.PageIndex, numPages, ErrInvalidPageReference,
				))
			}
			continue
		}
		byPage[set.PageIndex] = append(byPage[set.PageIndex], set)
	}
	return byPage
}

type sourcePage struct {
	index int
	dict  pdf.Dict
	ref   pdf.Reference
}

type baker struct {
	in     *pdf.Reader
	out    *pdf.Writer
	rm     *pdf.ResourceManager
	copier *pdf.Copier
	report *Report

	// head is the shared "q" stream that opens every annotated page.
	head pdf.Reference
}

// bakePage returns the output dictionary of one page. When the annotation
// layer cannot be attached the page is copied unannotated and its
// annotations are reported as skipped.
func (b *baker) bakePage(page sourcePage, sets []annotation.PageSet) (pdf.Dict, error) {
	if len(sets) == 0 {
		return b.copyPlain(page)
	}

	box, err := pdf.GetRectangle(b.in, page.dict["MediaBox"])
	if err != nil || box == nil || box.IsZero() {
		if err == nil {
			err = fmt.Errorf("page %d has no media box", page.index)
		}
		b.skipAll(sets, page.index, fmt.Errorf("%s: %w", err.Error(), pdfops.ErrCorruptDocument))
		return b.copyPlain(page)
	}

	layer := newLayer(box)
	applied := 0
	for _, set := range sets {
		for _, a := range set.Annotations {
			if err := layer.draw(a, set); err != nil {
				b.report.skip(a, page.index, err)
				continue
			}
			applied++
		}
	}
	if applied == 0 {
		return b.copyPlain(page)
	}

	dict, err := b.attach(page, layer)
	if err != nil {
		b.skipAll(sets, page.index, err)
		return b.copyPlain(page)
	}

	b.report.Applied += applied
	return dict, nil
}

func (b *baker) skipAll(sets []annotation.PageSet, pageIndex int, err error) {
	for _, set := range sets {
		for _, a := range set.Annotations {
			b.report.skip(a, pageIndex, err)
		}
	}
}

func (b *baker) copyPlain(page sourcePage) (pdf.Dict, error) {
	dict, err := b.copier.CopyDict(page.dict)
	if err != nil {
		return nil, fmt.Errorf("copy page %d: %s: %w", page.index, err.Error(), pdfops.ErrCorruptDocument)
	}
	return dict, nil
}

// attach embeds the drawn layer as a form XObject and appends it to the
// page's content. The original content is wrapped in q/Q so that graphics
// state it leaves behind does not leak into the layer.
func (b *baker) attach(page sourcePage, l *layer) (pdf.Dict, error) {
	formRef, err := b.rm.Embed(&form.Form{
		Content: l.stream,
		Res:     l.res,
		BBox:    l.box,
		Matrix:  matrix.Identity,
	})
	if err != nil {
		return nil, fmt.Errorf("embed annotation layer: %w", err)
	}

	dict, name, err := b.prepare(page.dict)
	if err != nil {
		return nil, err
	}
	copied, err := b.copier.CopyDict(dict)
	if err != nil {
		return nil, fmt.Errorf("copy page: %w", err)
	}

	res, _ := copied["Resources"].(pdf.Dict)
	xobjects, _ := res["XObject"].(pdf.Dict)
	if xobjects == nil {
		return nil, fmt.Errorf("page %d: resources were not copied", page.index)
	}
	xobjects[name] = formRef

	head, err := b.headStream()
	if err != nil {
		return nil, err
	}
	tail := b.out.Alloc()
	if err := b.writeStream(tail, fmt.Sprintf("Q q /%s Do Q\n", name)); err != nil {
		return nil, err
	}

	contents := pdf.Array{head}
	switch c := copied["Contents"].(type) {
	case nil:
	case pdf.Array:
		contents = append(contents, c...)
	default:
		contents = append(contents, c)
	}
	copied["Contents"] = append(contents, tail)

	return copied, nil
}

// prepare returns a shallow copy of the page dictionary whose resources and
// XObject dictionaries are direct objects, so that the copies can be
// extended, together with an unused XObject name.
func (b *baker) prepare(dict pdf.Dict) (pdf.Dict, pdf.Name, error) {
	page := maps.Clone(dict)

	res, err := pdf.GetDict(b.in, page["Resources"])
	if err != nil {
		return nil, "", fmt.Errorf("resources: %w", err)
	}
	res = maps.Clone(res)
	if res == nil {
		res = pdf.Dict{}
	}

	xobjects, err := pdf.GetDict(b.in, res["XObject"])
	if err != nil {
		return nil, "", fmt.Errorf("xobjects: %w", err)
	}
	xobjects = maps.Clone(xobjects)
	if xobjects == nil {
		xobjects = pdf.Dict{}
	}

	res["XObject"] = xobjects
	page["Resources"] = res

	contents, err := pdf.Resolve(b.in, page["Contents"])
	if err != nil {
		return nil, "", fmt.Errorf("contents: %w", err)
	}
	if arr, ok := contents.(pdf.Array); ok {
		page["Contents"] = arr
	}

	name := xobjectName
	for i := 1; xobjects[name] != nil; i++ {
		name = xobjectName + pdf.Name(strconv.Itoa(i))
	}
	return page, name, nil
}

func (b *baker) headStream() (pdf.Reference, error) {
	if b.head != 0 {
		return b.head, nil
	}

	ref := b.out.Alloc()
	if err := b.writeStream(ref, "q\n"); err != nil {
		return 0, err
	}
	b.head = ref
	return ref, nil
}

func (b *baker) writeStream(ref pdf.Reference, data string) error {
	w, err := b.out.OpenStream(ref, nil, pdf.FilterCompress{})
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if _, err := w.Write([]byte(data)); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}
