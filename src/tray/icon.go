package tray

// SVG source for the tray icon, kept alongside until an ICO rendering
// step exists.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="3" y="3" width="8" height="6" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1" opacity="0.8"/>
  <g transform="translate(10.5, 11) rotate(-45)">
    <circle cx="0" cy="-1" r="1" fill="none" stroke="#333333" stroke-width="0.8"/>
    <circle cx="0" cy="1" r="1" fill="none" stroke="#333333" stroke-width="0.8"/>
    <line x1="0.7" y1="-0.3" x2="2.5" y2="-0.8" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
    <line x1="0.7" y1="0.3" x2="2.5" y2="0.8" stroke="#333333" stroke-width="1" stroke-linecap="round"/>
    <circle cx="0.5" cy="0" r="0.3" fill="#666666"/>
  </g>
  <line x1="8" y1="9.5" x2="10" y2="11.5" stroke="#666666" stroke-width="1" stroke-dasharray="1,1" opacity="0.6"/>
</svg>`

// Icon returns the tray icon bytes.
// TODO: render iconSVG to ICO so SetIcon gets real data on Windows.
func Icon() []byte {
	return nil
}
