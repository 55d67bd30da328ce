// Package docbook parses DICOM docbook parts and memoizes them per run.
//
// A [Document] wraps the xmlquery tree of one part (part03.xml, part04.xml, ...)
// and indexes every element carrying an xml:id, so tables and sections are
// found in constant time. The helpers in this package ([Rows], [Cells],
// [Caption], [Title], [Link]) encode the table layout the standard uses:
//
//	<table xml:id="table_C.7-1">
//	  <caption>Patient Module Attributes</caption>
//	  <tbody>
//	    <tr><td><para>Patient's Name</para></td><td><para>(0010,0010)</para></td>...</tr>
//	  </tbody>
//	</table>
//
// A [Library] opens each part at most once through an [Opener] and hands the
// same *Document to every later caller.
package docbook
