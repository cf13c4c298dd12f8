/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package geometry

// CropRect fits a rectangle of the given aspect ratio (width/height) inside the
// container minus padding on every side and centres it in the container.
// Degenerate input yields a zero-size rectangle at the container centre.
func CropRect(containerW, containerH, padding, aspect float64) Rect {
	availW := containerW - 2*padding
	availH := containerH - 2*padding
	if !(availW > 0) || !(availH > 0) || !(aspect > 0) {
		return Rect{X: containerW / 2, Y: containerH / 2}
	}

	var w, h float64
	if aspect > availW/availH {
		w = availW
		h = w / aspect
	} else {
		h = availH
		w = h * aspect
	}
	return Rect{
		X: (containerW - w) / 2,
		Y: (containerH - h) / 2,
		W: w,
		H: h,
	}
}
